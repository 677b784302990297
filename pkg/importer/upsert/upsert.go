package upsert

import (
	"context"
	"errors"

	"github.com/samber/lo"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
)

// Result counts what happened (or would happen in dry-run mode) to rows
type Result struct {
	Created int
	Updated int
	// Skipped counts existing rows left alone in create-only mode
	Skipped int
}

func (r *Result) Add(o Result) {
	r.Created += o.Created
	r.Updated += o.Updated
	r.Skipped += o.Skipped
}

type (
	Option func(*Engine)
	Engine struct {
		tx         api.TransactionManager
		createOnly bool
		dryRun     bool
		l          *log.Logger
	}
)

// WithCreateOnly leaves existing rows untouched
func WithCreateOnly(b bool) Option {
	return func(e *Engine) {
		e.createOnly = b
	}
}

// WithDryRun performs lookups only
func WithDryRun(b bool) Option {
	return func(e *Engine) {
		e.dryRun = b
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.l = l
	}
}

func New(tx api.TransactionManager, opts ...Option) *Engine {
	ret := &Engine{
		tx: tx,
		l:  log.Default().Named("upsert"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (e *Engine) DryRun() bool     { return e.dryRun }
func (e *Engine) CreateOnly() bool { return e.createOnly }

// run executes fn in a transaction. Dry runs need no transaction.
func (e *Engine) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.dryRun {
		return fn(ctx)
	}
	return e.tx.RunInTx(ctx, fn)
}

// Upsert creates desired if no row with its natural key exists. Otherwise the
// columns carrying a value are merged onto the stored row and only changed
// columns are written. A match counts as updated even without changes.
//
//nolint:whitespace // editor/linter issue
func Upsert[E model.Entity](
	ctx context.Context,
	eng *Engine,
	store api.EntityRepository[E],
	desired E,
) (Result, error) {
	var res Result
	err := eng.run(ctx, func(ctx context.Context) error {
		current, err := store.FindByKey(ctx, desired)
		if errors.Is(err, api.ErrNotFound) {
			res.Created = 1
			if eng.dryRun {
				return nil
			}
			return store.Create(ctx, desired)
		}
		if err != nil {
			return err
		}
		if eng.createOnly {
			res.Skipped = 1
			return nil
		}
		res.Updated = 1
		changed := desired.Changes().Diff(current.Values())
		if len(changed) == 0 || eng.dryRun {
			return nil
		}
		eng.l.Debug("updating",
			log.String("table", desired.Table()),
			log.Any("key", desired.KeyColumns()),
			log.Strings("columns", changed.Names()))
		_, err = store.UpdateColumns(ctx, desired, changed)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// ReplaceCarSamples replaces the imported samples matched by scope in one
// transaction. Manual samples are kept. In dry-run mode the counts are
// computed without writing.
//
//nolint:whitespace // editor/linter issue
func (e *Engine) ReplaceCarSamples(
	ctx context.Context,
	repo api.CarSampleRepository,
	scope model.SampleScope,
	samples []*model.CarSample,
) (deleted, inserted int, err error) {
	if e.dryRun {
		deleted, err = repo.CountInScope(ctx, scope)
		return deleted, len(uniqueSamples(samples)), err
	}
	err = e.tx.RunInTx(ctx, func(ctx context.Context) error {
		var txErr error
		deleted, inserted, txErr = repo.ReplaceInScope(ctx, scope, samples)
		return txErr
	})
	if err != nil {
		return 0, 0, err
	}
	e.l.Debug("replaced car samples",
		log.Int32("meeting", scope.MeetingKey),
		log.Int("deleted", deleted),
		log.Int("inserted", inserted))
	return deleted, inserted, nil
}

type sampleKey struct {
	session int32
	driver  int16
	date    int64
}

// uniqueSamples drops samples with a natural key already seen
func uniqueSamples(samples []*model.CarSample) []*model.CarSample {
	return lo.UniqBy(samples, func(s *model.CarSample) sampleKey {
		return sampleKey{s.SessionKey, s.DriverNumber, s.Date.UnixMicro()}
	})
}
