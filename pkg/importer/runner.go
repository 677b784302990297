package importer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
)

var meter = otel.Meter("speedview-sync")

// Publisher announces finished runs
type Publisher interface {
	Publish(subject string, v any) error
}

type (
	RunnerOption func(*Runner)
	Runner       struct {
		env       *Env
		recorder  api.ImportRunRepository
		publisher Publisher
		tracer    trace.Tracer
		l         *log.Logger
		rows      metric.Int64Counter
		created   metric.Int64Counter
		updated   metric.Int64Counter
	}
)

// WithRecorder stores a summary row for each run which is not a dry run
func WithRecorder(repo api.ImportRunRepository) RunnerOption {
	return func(r *Runner) {
		r.recorder = repo
	}
}

func WithPublisher(p Publisher) RunnerOption {
	return func(r *Runner) {
		r.publisher = p
	}
}

func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) {
		r.tracer = t
	}
}

func WithRunnerLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.l = l
	}
}

func NewRunner(env *Env, opts ...RunnerOption) *Runner {
	ret := &Runner{
		env: env,
		l:   log.Default().Named("runner"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("speedview-sync")
	}
	ret.rows, _ = meter.Int64Counter("import_rows",
		metric.WithDescription("records received from upstream"))
	ret.created, _ = meter.Int64Counter("import_created",
		metric.WithDescription("rows created by the importer"))
	ret.updated, _ = meter.Int64Counter("import_updated",
		metric.WithDescription("rows updated by the importer"))
	return ret
}

// Run fetches and stores all units of job in order. Unit failures are
// reported and skipped. Store errors abort the run as does a transport error
// before any unit reached upstream.
//
//nolint:funlen // sequential steps
func (r *Runner) Run(ctx context.Context, job Job) (*Summary, error) {
	ctx, span := r.tracer.Start(ctx, "import."+job.Name())
	defer span.End()

	summary := newSummary(job.Name(), r.env)
	units, err := job.Units(ctx, r.env)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	r.l.Info("starting import",
		log.String("job", job.Name()),
		log.Int("units", len(units)),
		log.Bool("dryRun", r.env.Cfg.DryRun),
		log.Bool("createOnly", r.env.Cfg.CreateOnly))

	results := make([]UnitResult, 0, len(units))
	reached := false
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := r.runUnit(ctx, job, unit)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return summary, fmt.Errorf("%s: %w", unit.Label, err)
		}
		if res.Outcome == OutcomeSkipped && openf1.IsTransport(res.Err) && !reached {
			r.env.printf("%s", unitLine(res))
			span.SetStatus(codes.Error, res.Err.Error())
			return summary, fmt.Errorf("%w: %w", ErrUnreachable, res.Err)
		}
		if res.Outcome != OutcomeSkipped {
			reached = true
		}
		r.env.printf("%s", unitLine(res))
		summary.addUnit(res)
		results = append(results, res)
	}

	if f, ok := job.(Finisher); ok {
		stats, err := f.Finish(ctx, r.env, results)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return summary, err
		}
		summary.add(Stats{Result: stats.Result, Invalid: stats.Invalid})
	}
	summary.FinishedAt = time.Now()
	summary.Print(r.env.Out)
	span.SetAttributes(
		attribute.Int("rows", summary.Rows),
		attribute.Int("created", summary.Created),
		attribute.Int("updated", summary.Updated))
	r.record(ctx, summary)
	r.publish(summary)
	return summary, nil
}

//nolint:whitespace // editor/linter issue
func (r *Runner) runUnit(ctx context.Context, job Job, unit Unit) (
	UnitResult, error,
) {
	ctx, span := r.tracer.Start(ctx, "unit",
		trace.WithAttributes(
			attribute.String("endpoint", unit.Endpoint),
			attribute.String("label", unit.Label)))
	defer span.End()

	ret := UnitResult{Unit: unit}
	records, err := r.env.Fetcher.Fetch(ctx, unit.Endpoint, unit.Params...)
	if err != nil {
		ret.Outcome = classify(err)
		ret.Err = err
		span.SetStatus(codes.Error, err.Error())
		r.l.Warn("unit not processed",
			log.String("unit", unit.Label),
			log.String("outcome", ret.Outcome.String()),
			log.ErrorField(err))
		return ret, nil
	}
	if len(records) == 0 {
		ret.Outcome = OutcomeEmpty
		return ret, nil
	}
	stats, err := job.Process(ctx, r.env, unit, records)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ret, err
	}
	ret.Outcome = OutcomeOK
	ret.Stats = stats

	attrs := metric.WithAttributes(attribute.String("job", job.Name()))
	r.rows.Add(ctx, int64(stats.Rows), attrs)
	if !r.env.Cfg.DryRun {
		r.created.Add(ctx, int64(stats.Created), attrs)
		r.updated.Add(ctx, int64(stats.Updated), attrs)
	}
	return ret, nil
}

func (r *Runner) record(ctx context.Context, summary *Summary) {
	if r.recorder == nil || summary.DryRun {
		return
	}
	if err := r.recorder.Create(ctx, summary.ToImportRun()); err != nil {
		r.l.Warn("could not record import run", log.ErrorField(err))
	}
}

func (r *Runner) publish(summary *Summary) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish("speedview.import."+summary.Job, summary); err != nil {
		r.l.Warn("could not publish summary", log.ErrorField(err))
	}
}
