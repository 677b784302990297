package importer

import (
	"context"

	"github.com/mpapenbr/speedview-sync/pkg/importer/upsert"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
)

// MeetingsJob imports meeting metadata
type MeetingsJob struct{}

var _ Job = MeetingsJob{}

func (MeetingsJob) Name() string { return "meetings" }

func (MeetingsJob) Units(ctx context.Context, env *Env) ([]Unit, error) {
	u := Unit{Label: "meetings", Endpoint: openf1.EndpointMeetings}
	if len(env.Cfg.MeetingKeys) > 0 {
		u.Params = append(u.Params, openf1.Ints("meeting_key", env.Cfg.MeetingKeys...))
	}
	if env.Cfg.Year > 0 {
		u.Params = append(u.Params, openf1.Int("year", env.Cfg.Year))
	}
	if len(env.Cfg.CountryNames) > 0 {
		u.Params = append(u.Params, openf1.Strings("country_name", env.Cfg.CountryNames...))
	}
	return []Unit{u}, nil
}

//nolint:whitespace // editor/linter issue
func (MeetingsJob) Process(
	ctx context.Context,
	env *Env,
	unit Unit,
	records []openf1.Record,
) (Stats, error) {
	return eachRecord(ctx, env, records,
		func(ctx context.Context, rec *openf1.MeetingRecord) (upsert.Result, error) {
			m := &model.Meeting{
				MeetingKey:          int32(*rec.MeetingKey),
				MeetingName:         model.Text(rec.MeetingName, 128),
				MeetingOfficialName: model.Text(rec.MeetingOfficialName, 255),
				CircuitKey:          nullInt32(rec.CircuitKey),
				CircuitShortName:    model.Text(rec.CircuitShortName, 64),
				Location:            model.Text(rec.Location, 64),
				CountryCode:         model.Text(code(rec.CountryCode), 0),
				CountryName:         model.Text(rec.CountryName, 64),
				Year:                nullInt32(rec.Year),
				DateStart:           nullTime(rec.DateStart),
				GmtOffset:           model.Text(rec.GmtOffset, 16),
			}
			res, err := upsert.Upsert[*model.Meeting](ctx, env.Engine, env.Repos.Meeting(), m)
			if err == nil {
				// later references to this meeting need no lookup
				env.Caches.Meetings.Put(ctx, m.MeetingKey, m)
			}
			return res, err
		})
}
