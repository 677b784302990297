package importer

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/mpapenbr/speedview-sync/pkg/importer/upsert"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
)

// SessionsJob imports the sessions of meetings
type SessionsJob struct{}

var _ Job = SessionsJob{}

func (SessionsJob) Name() string { return "sessions" }

func (SessionsJob) Units(ctx context.Context, env *Env) ([]Unit, error) {
	keys, err := env.meetingKeys(ctx)
	if err != nil {
		return nil, err
	}
	if env.Cfg.MissingOnly {
		if keys, err = withoutSessions(ctx, env, keys); err != nil {
			return nil, err
		}
	}
	return lo.Map(keys, func(k int32, _ int) Unit {
		return Unit{
			Label:      fmt.Sprintf("meeting %d", k),
			Endpoint:   openf1.EndpointSessions,
			Params:     []openf1.Param{openf1.Int("meeting_key", int(k))},
			MeetingKey: k,
		}
	}), nil
}

//nolint:whitespace // editor/linter issue
func (SessionsJob) Process(
	ctx context.Context,
	env *Env,
	unit Unit,
	records []openf1.Record,
) (Stats, error) {
	return eachRecord(ctx, env, records,
		func(ctx context.Context, rec *openf1.SessionRecord) (upsert.Result, error) {
			meeting, err := env.Resolver.Meeting(ctx, int32(*rec.MeetingKey))
			if err != nil {
				return upsert.Result{}, err
			}
			s := &model.Session{
				SessionKey:  int32(*rec.SessionKey),
				MeetingKey:  meeting.MeetingKey,
				SessionName: model.Text(rec.SessionName, 64),
				SessionType: model.Text(rec.SessionType, 32),
				DateStart:   nullTime(rec.DateStart),
				DateEnd:     nullTime(rec.DateEnd),
			}
			res, err := upsert.Upsert[*model.Session](ctx, env.Engine, env.Repos.Session(), s)
			if err == nil && !env.Engine.CreateOnly() {
				env.Caches.Sessions.Put(ctx, s.SessionKey, s)
			}
			return res, err
		})
}

// withoutSessions keeps the meetings which have no local session yet
func withoutSessions(ctx context.Context, env *Env, keys []int32) ([]int32, error) {
	if len(env.Cfg.MeetingKeys) == 0 {
		return env.Repos.Meeting().LoadKeysWithoutSessions(ctx)
	}
	ret := []int32{}
	for _, k := range keys {
		s, err := env.Repos.Session().LoadByMeeting(ctx, k)
		if err != nil {
			return nil, err
		}
		if len(s) == 0 {
			ret = append(ret, k)
		}
	}
	return ret, nil
}
