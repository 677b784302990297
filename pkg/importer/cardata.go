package importer

import (
	"context"

	"github.com/aarondl/opt/null"
	"github.com/samber/lo"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/importer/resolver"
	"github.com/mpapenbr/speedview-sync/pkg/importer/upsert"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
)

// CarDataJob imports car telemetry samples. In refresh mode the samples are
// collected per meeting and replace the stored ones after all units ran.
type CarDataJob struct {
	pending map[int32][]*model.CarSample
	order   []int32
}

var (
	_ Job      = (*CarDataJob)(nil)
	_ Finisher = (*CarDataJob)(nil)
)

func NewCarDataJob() *CarDataJob {
	return &CarDataJob{pending: map[int32][]*model.CarSample{}}
}

func (j *CarDataJob) Name() string { return "car-data" }

func (j *CarDataJob) Units(ctx context.Context, env *Env) ([]Unit, error) {
	return env.telemetryUnits(ctx, openf1.EndpointCarData, env.speedFilter()...)
}

//nolint:whitespace // editor/linter issue
func (j *CarDataJob) Process(
	ctx context.Context,
	env *Env,
	unit Unit,
	records []openf1.Record,
) (Stats, error) {
	collected := 0
	stats, err := eachRecord(ctx, env, records,
		func(ctx context.Context, rec *openf1.CarDataRecord) (upsert.Result, error) {
			sample, err := toCarSample(ctx, env, rec)
			if err != nil {
				return upsert.Result{}, err
			}
			if env.Cfg.Refresh {
				j.collect(sample)
				collected++
				return upsert.Result{}, nil
			}
			return upsert.Upsert[*model.CarSample](ctx, env.Engine, env.Repos.CarSample(), sample)
		})
	stats.Collected = collected
	return stats, err
}

//nolint:whitespace // editor/linter issue
func toCarSample(
	ctx context.Context,
	env *Env,
	rec *openf1.CarDataRecord,
) (*model.CarSample, error) {
	rec.ClampThrottle()
	parents, err := env.Resolver.Resolve(ctx, resolver.Ref{
		MeetingKey:     rec.MeetingKey,
		SessionKey:     rec.SessionKey,
		DriverNumber:   rec.DriverNumber,
		RequireSession: true,
	})
	if err != nil {
		return nil, err
	}
	ret := &model.CarSample{
		MeetingKey:   parents.Meeting.MeetingKey,
		SessionKey:   parents.Session.SessionKey,
		DriverNumber: parents.Driver.DriverNumber,
		Date:         rec.Date,
		Speed:        nullInt32(rec.Speed),
		Throttle:     nullInt32(rec.Throttle),
		Brake:        nullInt32(rec.Brake),
		NGear:        nullInt32(rec.NGear),
		RPM:          nullInt32(rec.RPM),
		DRS:          nullInt32(rec.DRS),
	}
	if rec.DRS != nil && env.Cfg.Debug {
		env.l.Debug("drs", log.Int16("driver", ret.DriverNumber),
			log.String("status", model.DRSStatus(*rec.DRS).Label()))
	}
	return ret, nil
}

func (j *CarDataJob) collect(s *model.CarSample) {
	if _, ok := j.pending[s.MeetingKey]; !ok {
		j.order = append(j.order, s.MeetingKey)
	}
	j.pending[s.MeetingKey] = append(j.pending[s.MeetingKey], s)
}

// Finish replaces the samples of every meeting whose units all completed.
// Only samples within the session, driver and speed filters of the run are
// replaced. Meetings with an incomplete or empty batch keep their samples.
//
//nolint:whitespace // editor/linter issue
func (j *CarDataJob) Finish(
	ctx context.Context,
	env *Env,
	results []UnitResult,
) (Stats, error) {
	ret := Stats{}
	if !env.Cfg.Refresh {
		return ret, nil
	}
	incomplete := map[int32]bool{}
	for _, res := range results {
		if res.Outcome == OutcomeSkipped || res.Outcome == OutcomeFailed {
			incomplete[res.Unit.MeetingKey] = true
		}
	}
	for _, key := range j.refreshKeys(ctx, env) {
		if incomplete[key] || incomplete[0] {
			env.printf("[!] meeting %d: refresh skipped, not all units completed", key)
			continue
		}
		batch := j.pending[key]
		if len(batch) == 0 {
			env.printf("[-] meeting %d: refresh skipped, no data returned", key)
			continue
		}
		deleted, inserted, err := env.Engine.ReplaceCarSamples(ctx,
			env.Repos.CarSample(), j.scope(env, key), batch)
		if err != nil {
			return ret, err
		}
		ret.Created += inserted
		env.printf("[+] meeting %d: replaced %d rows with %d rows", key, deleted, inserted)
	}
	return ret, nil
}

// scope limits the replaced samples to what the filters of this run fetched
func (j *CarDataJob) scope(env *Env, meetingKey int32) model.SampleScope {
	ret := model.SampleScope{
		MeetingKey:  meetingKey,
		SessionKeys: int32s(env.Cfg.SessionKeys),
		DriverNumbers: lo.Map(env.Cfg.DriverNumbers, func(v, _ int) int16 {
			return int16(v)
		}),
	}
	if env.Cfg.MinSpeed >= 0 {
		ret.MinSpeed = null.From(int32(env.Cfg.MinSpeed))
	}
	if env.Cfg.MaxSpeed >= 0 {
		ret.MaxSpeed = null.From(int32(env.Cfg.MaxSpeed))
	}
	return ret
}

// refreshKeys returns the meetings of the run followed by meetings only seen
// in records.
func (j *CarDataJob) refreshKeys(ctx context.Context, env *Env) []int32 {
	ret := []int32{}
	seen := map[int32]bool{}
	if len(env.Cfg.MeetingKeys) > 0 || len(env.Cfg.SessionKeys) == 0 {
		if keys, err := env.meetingKeys(ctx); err == nil {
			for _, k := range keys {
				seen[k] = true
				ret = append(ret, k)
			}
		}
	}
	for _, k := range j.order {
		if !seen[k] {
			seen[k] = true
			ret = append(ret, k)
		}
	}
	return ret
}
