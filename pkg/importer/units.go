package importer

import (
	"context"
	"fmt"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
)

// meetingKeys returns the meetings given on the command line or all local ones
func (e *Env) meetingKeys(ctx context.Context) ([]int32, error) {
	if len(e.Cfg.MeetingKeys) > 0 {
		return int32s(e.Cfg.MeetingKeys), nil
	}
	keys, err := e.Repos.Meeting().LoadKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrNoMeetings
	}
	return keys, nil
}

// sessionKeys asks upstream for the sessions of a meeting and makes sure they
// exist locally. An empty result means the meeting is queried without session.
func (e *Env) sessionKeys(ctx context.Context, meetingKey int32) ([]int32, error) {
	records, err := e.Fetcher.Fetch(ctx, openf1.EndpointSessions,
		openf1.Int("meeting_key", int(meetingKey)))
	if err != nil {
		e.printf("[!] meeting %d: failed to fetch sessions (%v); fallback to meeting-only queries.",
			meetingKey, err)
		return nil, nil
	}
	if _, err := e.Resolver.Meeting(ctx, meetingKey); err != nil {
		return nil, err
	}
	ret := make([]int32, 0, len(records))
	for _, raw := range records {
		rec, err := openf1.Decode[openf1.SessionRecord](raw)
		if err != nil {
			e.l.Warn("skipping session", log.String("record", openf1.Describe(raw)),
				log.ErrorField(err))
			continue
		}
		key := int32(*rec.SessionKey)
		if _, err := e.Resolver.Session(ctx, key, meetingKey); err != nil {
			return nil, err
		}
		ret = append(ret, key)
	}
	if len(ret) == 0 {
		e.printf("[-] meeting %d: no sessions found.", meetingKey)
	}
	return ret, nil
}

// telemetryUnits enumerates meetings x sessions x drivers. Missing session or
// driver filters result in a single request without that filter.
//
//nolint:whitespace // editor/linter issue
func (e *Env) telemetryUnits(
	ctx context.Context,
	endpoint string,
	extra ...openf1.Param,
) ([]Unit, error) {
	drivers := []*int{nil}
	if len(e.Cfg.DriverNumbers) > 0 {
		drivers = ptrs(e.Cfg.DriverNumbers)
	}
	ret := []Unit{}
	add := func(meetingKey int32, session, driver *int) {
		u := Unit{Endpoint: endpoint, MeetingKey: meetingKey}
		label := ""
		if meetingKey > 0 {
			u.Params = append(u.Params, openf1.Int("meeting_key", int(meetingKey)))
			label = fmt.Sprintf("meeting %d", meetingKey)
		}
		if session != nil {
			u.Params = append(u.Params, openf1.Int("session_key", *session))
			label = join(label, fmt.Sprintf("session %d", *session))
		}
		if driver != nil {
			u.Params = append(u.Params, openf1.Int("driver_number", *driver))
			label = join(label, fmt.Sprintf("driver %d", *driver))
		}
		u.Params = append(u.Params, extra...)
		u.Label = label
		ret = append(ret, u)
	}

	// sessions without meetings: the session key selects the data
	if len(e.Cfg.MeetingKeys) == 0 && len(e.Cfg.SessionKeys) > 0 {
		for _, s := range ptrs(e.Cfg.SessionKeys) {
			for _, d := range drivers {
				add(0, s, d)
			}
		}
		return ret, nil
	}

	meetings, err := e.meetingKeys(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range meetings {
		sessions := ptrs(e.Cfg.SessionKeys)
		if len(sessions) == 0 {
			keys, err := e.sessionKeys(ctx, m)
			if err != nil {
				return nil, err
			}
			for _, k := range keys {
				v := int(k)
				sessions = append(sessions, &v)
			}
		}
		if len(sessions) == 0 {
			sessions = []*int{nil}
		}
		for _, s := range sessions {
			for _, d := range drivers {
				add(m, s, d)
			}
		}
	}
	return ret, nil
}

// speedFilter converts the speed range options into comparison parameters
func (e *Env) speedFilter() []openf1.Param {
	ret := []openf1.Param{}
	if e.Cfg.MinSpeed >= 0 {
		ret = append(ret, openf1.Compare("speed", openf1.OpGe, e.Cfg.MinSpeed))
	}
	if e.Cfg.MaxSpeed >= 0 {
		ret = append(ret, openf1.Compare("speed", openf1.OpLe, e.Cfg.MaxSpeed))
	}
	return ret
}

func ptrs(in []int) []*int {
	ret := make([]*int, len(in))
	for i := range in {
		ret[i] = &in[i]
	}
	return ret
}

func join(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
