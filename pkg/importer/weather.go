package importer

import (
	"context"
	"fmt"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/speedview-sync/pkg/importer/resolver"
	"github.com/mpapenbr/speedview-sync/pkg/importer/upsert"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
)

// WeatherJob imports weather samples. Samples belong to a meeting, the
// session is optional.
type WeatherJob struct{}

var _ Job = WeatherJob{}

func (WeatherJob) Name() string { return "weather" }

func (WeatherJob) Units(ctx context.Context, env *Env) ([]Unit, error) {
	keys, err := env.meetingKeys(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]Unit, 0, len(keys))
	for _, k := range keys {
		u := Unit{
			Label:      fmt.Sprintf("meeting %d", k),
			Endpoint:   openf1.EndpointWeather,
			Params:     []openf1.Param{openf1.Int("meeting_key", int(k))},
			MeetingKey: k,
		}
		if len(env.Cfg.SessionKeys) > 0 {
			u.Params = append(u.Params, openf1.Ints("session_key", env.Cfg.SessionKeys...))
		}
		ret = append(ret, u)
	}
	return ret, nil
}

//nolint:whitespace // editor/linter issue
func (WeatherJob) Process(
	ctx context.Context,
	env *Env,
	unit Unit,
	records []openf1.Record,
) (Stats, error) {
	return eachRecord(ctx, env, records,
		func(ctx context.Context, rec *openf1.WeatherRecord) (upsert.Result, error) {
			parents, err := env.Resolver.Resolve(ctx, resolver.Ref{
				MeetingKey: rec.MeetingKey,
				SessionKey: rec.SessionKey,
			})
			if err != nil {
				return upsert.Result{}, err
			}
			w := &model.Weather{
				MeetingKey:       parents.Meeting.MeetingKey,
				Date:             rec.Date,
				AirTemperature:   nullDecimal(rec.AirTemperature),
				TrackTemperature: nullDecimal(rec.TrackTemperature),
				Humidity:         nullDecimal(rec.Humidity),
				Pressure:         nullDecimal(rec.Pressure),
				WindSpeed:        nullDecimal(rec.WindSpeed),
				WindDirection:    nullInt32(rec.WindDirection),
			}
			if parents.Session != nil {
				w.SessionKey = null.From(parents.Session.SessionKey)
			}
			if rec.Rainfall != nil {
				w.Rainfall = null.From(*rec.Rainfall != 0)
			}
			return upsert.Upsert[*model.Weather](ctx, env.Engine, env.Repos.Weather(), w)
		})
}
