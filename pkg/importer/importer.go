package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/config"
	"github.com/mpapenbr/speedview-sync/pkg/importer/cache"
	"github.com/mpapenbr/speedview-sync/pkg/importer/resolver"
	"github.com/mpapenbr/speedview-sync/pkg/importer/upsert"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
)

var (
	ErrNoMeetings  = errors.New("no meeting keys found, import meetings first or pass --meeting-key")
	ErrUnreachable = errors.New("upstream not reachable")
)

// Fetcher is implemented by openf1.Client
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params ...openf1.Param) ([]openf1.Record, error)
}

// Env carries the collaborators of one import run
type Env struct {
	Cfg      *config.ImportConfig
	Fetcher  Fetcher
	Repos    api.Repositories
	Caches   *cache.Set
	Resolver *resolver.Resolver
	Engine   *upsert.Engine
	Out      io.Writer
	l        *log.Logger
}

// NewEnv creates fresh caches for one run and wires resolver and upsert engine
// according to the run modes of cfg.
//
//nolint:whitespace // editor/linter issue
func NewEnv(
	cfg *config.ImportConfig,
	fetcher Fetcher,
	repos api.Repositories,
	tx api.TransactionManager,
	out io.Writer,
) *Env {
	l := log.Default().Named("importer")
	caches := cache.NewSet()
	return &Env{
		Cfg:     cfg,
		Fetcher: fetcher,
		Repos:   repos,
		Caches:  caches,
		Resolver: resolver.New(caches, repos, tx,
			resolver.WithDryRun(cfg.DryRun),
			resolver.WithLogger(l.Named("resolver"))),
		Engine: upsert.New(tx,
			upsert.WithCreateOnly(cfg.CreateOnly),
			upsert.WithDryRun(cfg.DryRun),
			upsert.WithLogger(l.Named("upsert"))),
		Out: out,
		l:   l,
	}
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format+"\n", args...)
}

// Unit is one upstream request of a job
type Unit struct {
	Label    string
	Endpoint string
	Params   []openf1.Param
	// MeetingKey is 0 for units not bound to a single meeting
	MeetingKey int32
}

// Stats accumulates the outcome of processed records
type Stats struct {
	upsert.Result
	Rows int
	// Invalid counts records which failed validation or lack parent keys
	Invalid int
	// Collected counts records held back for a write in Finish
	Collected int
}

func (s *Stats) Add(o Stats) {
	s.Result.Add(o.Result)
	s.Rows += o.Rows
	s.Invalid += o.Invalid
	s.Collected += o.Collected
}

type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeEmpty is a unit without records (including HTTP 422)
	OutcomeEmpty
	// OutcomeSkipped is a unit which could not be fetched (transport errors,
	// exhausted retries)
	OutcomeSkipped
	// OutcomeFailed is a unit with a malformed or rejected response
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (o Outcome) marker() string {
	switch o {
	case OutcomeOK:
		return "[+]"
	case OutcomeEmpty:
		return "[-]"
	default:
		return "[!]"
	}
}

// classify maps fetch errors to the unit outcome
func classify(err error) Outcome {
	var fe *openf1.FetchError
	if !errors.As(err, &fe) {
		return OutcomeSkipped
	}
	switch {
	case fe.Kind == openf1.KindDecode:
		return OutcomeFailed
	case fe.Kind == openf1.KindStatus && !fe.Retryable():
		return OutcomeFailed
	default:
		return OutcomeSkipped
	}
}

type UnitResult struct {
	Unit    Unit
	Outcome Outcome
	Stats
	Err error
}

// Job is one import command
type Job interface {
	Name() string
	// Units enumerates the upstream requests. Errors abort the run.
	Units(ctx context.Context, env *Env) ([]Unit, error)
	// Process stores the records of one unit. Errors abort the run.
	Process(ctx context.Context, env *Env, unit Unit, records []openf1.Record) (Stats, error)
}

// Finisher is implemented by jobs which write after all units were fetched
type Finisher interface {
	Finish(ctx context.Context, env *Env, results []UnitResult) (Stats, error)
}
