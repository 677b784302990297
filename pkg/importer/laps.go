package importer

import (
	"context"

	"github.com/mpapenbr/speedview-sync/pkg/db/mytypes"
	"github.com/mpapenbr/speedview-sync/pkg/importer/resolver"
	"github.com/mpapenbr/speedview-sync/pkg/importer/upsert"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
)

type LapsJob struct{}

var _ Job = LapsJob{}

func (LapsJob) Name() string { return "laps" }

func (LapsJob) Units(ctx context.Context, env *Env) ([]Unit, error) {
	return env.telemetryUnits(ctx, openf1.EndpointLaps)
}

//nolint:whitespace // editor/linter issue
func (LapsJob) Process(
	ctx context.Context,
	env *Env,
	unit Unit,
	records []openf1.Record,
) (Stats, error) {
	return eachRecord(ctx, env, records,
		func(ctx context.Context, rec *openf1.LapRecord) (upsert.Result, error) {
			parents, err := env.Resolver.Resolve(ctx, resolver.Ref{
				MeetingKey:     rec.MeetingKey,
				SessionKey:     rec.SessionKey,
				DriverNumber:   rec.DriverNumber,
				RequireSession: true,
			})
			if err != nil {
				return upsert.Result{}, err
			}
			s1, s2, s3 := rec.Segments()
			lap := &model.Lap{
				MeetingKey:      parents.Meeting.MeetingKey,
				SessionKey:      parents.Session.SessionKey,
				DriverNumber:    parents.Driver.DriverNumber,
				LapNumber:       int32(*rec.LapNumber),
				DateStart:       nullTime(rec.DateStart),
				LapDuration:     nullDecimal(rec.LapDuration),
				DurationSector1: nullDecimal(rec.DurationSector1),
				DurationSector2: nullDecimal(rec.DurationSector2),
				DurationSector3: nullDecimal(rec.DurationSector3),
				I1Speed:         nullInt32(rec.I1Speed),
				I2Speed:         nullInt32(rec.I2Speed),
				StSpeed:         nullInt32(rec.StSpeed),
				IsPitOutLap:     rec.IsPitOutLap,
				Segments:        mytypes.Segments{Sector1: s1, Sector2: s2, Sector3: s3},
			}
			return upsert.Upsert[*model.Lap](ctx, env.Engine, env.Repos.Lap(), lap)
		})
}
