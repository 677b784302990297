package importer

import (
	"context"

	"github.com/mpapenbr/speedview-sync/pkg/importer/resolver"
	"github.com/mpapenbr/speedview-sync/pkg/importer/upsert"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
)

type PitJob struct{}

var _ Job = PitJob{}

func (PitJob) Name() string { return "pit" }

func (PitJob) Units(ctx context.Context, env *Env) ([]Unit, error) {
	return env.telemetryUnits(ctx, openf1.EndpointPit)
}

//nolint:whitespace // editor/linter issue
func (PitJob) Process(
	ctx context.Context,
	env *Env,
	unit Unit,
	records []openf1.Record,
) (Stats, error) {
	return eachRecord(ctx, env, records,
		func(ctx context.Context, rec *openf1.PitRecord) (upsert.Result, error) {
			parents, err := env.Resolver.Resolve(ctx, resolver.Ref{
				MeetingKey:     rec.MeetingKey,
				SessionKey:     rec.SessionKey,
				DriverNumber:   rec.DriverNumber,
				RequireSession: true,
			})
			if err != nil {
				return upsert.Result{}, err
			}
			pit := &model.Pit{
				MeetingKey:   parents.Meeting.MeetingKey,
				SessionKey:   parents.Session.SessionKey,
				DriverNumber: parents.Driver.DriverNumber,
				LapNumber:    int32(*rec.LapNumber),
				Date:         nullTime(rec.Date),
				PitDuration:  nullDecimal(rec.PitDuration),
			}
			return upsert.Upsert[*model.Pit](ctx, env.Engine, env.Repos.Pit(), pit)
		})
}
