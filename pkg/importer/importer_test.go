//nolint:funlen // ok for this test code
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/speedview-sync/pkg/config"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
	"github.com/mpapenbr/speedview-sync/testsupport/memrepo"
)

type route func(q url.Values) (status int, body string)

// upstream serves canned responses per endpoint. Unknown endpoints return an
// empty list.
type upstream struct {
	mu     sync.Mutex
	routes map[string]route
	calls  []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.calls = append(u.calls, r.URL.Path+"?"+r.URL.RawQuery)
	u.mu.Unlock()
	status, body := http.StatusOK, "[]"
	if fn, ok := u.routes[strings.Trim(r.URL.Path, "/")]; ok {
		status, body = fn(r.URL.Query())
	}
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func carData(meeting, session, n int) string {
	recs := make([]string, n)
	for i := range n {
		recs[i] = fmt.Sprintf(`{"meeting_key":%d,"session_key":%d,"driver_number":44,`+
			`"date":"2023-09-17T12:00:%02d.000Z","speed":%d,"throttle":104,"drs":12}`,
			meeting, session, i, 280+i)
	}
	return "[" + strings.Join(recs, ",") + "]"
}

// twoMeetings has no data for meeting 1 and one session with 10 samples
// for meeting 2
func twoMeetings() *upstream {
	return &upstream{routes: map[string]route{
		openf1.EndpointSessions: func(q url.Values) (int, string) {
			if q.Get("meeting_key") == "2" {
				return http.StatusOK, `[{"meeting_key":2,"session_key":20,"session_name":"Race"}]`
			}
			return http.StatusUnprocessableEntity, `{"detail":"no results"}`
		},
		openf1.EndpointCarData: func(q url.Values) (int, string) {
			if q.Get("meeting_key") == "2" && q.Get("session_key") == "20" {
				return http.StatusOK, carData(2, 20, 10)
			}
			return http.StatusUnprocessableEntity, `{"detail":"no results"}`
		},
	}}
}

type fixture struct {
	srv   *httptest.Server
	up    *upstream
	repos *memrepo.Repositories
	tx    *memrepo.TxManager
	out   *bytes.Buffer
}

func newFixture(t *testing.T, up *upstream) *fixture {
	t.Helper()
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)
	return &fixture{
		srv:   srv,
		up:    up,
		repos: memrepo.New(),
		tx:    &memrepo.TxManager{},
		out:   &bytes.Buffer{},
	}
}

func (f *fixture) config(mod ...func(*config.ImportConfig)) *config.ImportConfig {
	cfg := &config.ImportConfig{
		BaseURL:  f.srv.URL,
		Timeout:  5,
		MinSpeed: -1,
		MaxSpeed: -1,
	}
	for _, m := range mod {
		m(cfg)
	}
	return cfg
}

//nolint:whitespace // editor/linter issue
func (f *fixture) run(
	t *testing.T,
	job Job,
	cfg *config.ImportConfig,
	opts ...RunnerOption,
) (*Summary, error) {
	t.Helper()
	f.out.Reset()
	client := openf1.New(cfg.BaseURL, openf1.WithRetries(0, time.Millisecond))
	env := NewEnv(cfg, client, f.repos, f.tx, f.out)
	return NewRunner(env, opts...).Run(context.Background(), job)
}

func meetings(keys ...int) func(*config.ImportConfig) {
	return func(c *config.ImportConfig) { c.MeetingKeys = keys }
}

func TestCarDataToleratesUnprocessable(t *testing.T) {
	f := newFixture(t, twoMeetings())
	got, err := f.run(t, NewCarDataJob(), f.config(meetings(1, 2)))
	require.NoError(t, err)

	assert.Equal(t, 10, got.Rows)
	assert.Equal(t, 10, got.Created)
	assert.Equal(t, 1, got.Count(OutcomeEmpty))
	assert.Equal(t, 1, got.Count(OutcomeOK))
	assert.Equal(t, 10, f.repos.CarSamples.Len())
	assert.Equal(t, 2, f.repos.Meetings.Len())
	assert.Equal(t, 1, f.repos.Sessions.Len())
	assert.Equal(t, 1, f.repos.Drivers.Len())

	out := f.out.String()
	assert.Contains(t, out, "[-] meeting 1: no sessions found.")
	assert.Contains(t, out, "[-] meeting 1: no data returned")
	assert.Contains(t, out, "[+] meeting 2 session 20: processed 10 rows (created=10, updated=0)")
	assert.Contains(t, out, "Finished. Total rows: 10, created: 10, updated: 0.")

	for _, s := range f.repos.CarSamples.All() {
		assert.Equal(t, int32(100), s.Throttle.GetOrZero(), "throttle clamped")
		assert.Equal(t, int32(12), s.DRS.GetOrZero(), "raw drs code")
	}
}

func TestCarDataIdempotent(t *testing.T) {
	f := newFixture(t, twoMeetings())
	_, err := f.run(t, NewCarDataJob(), f.config(meetings(1, 2)))
	require.NoError(t, err)
	writes := f.repos.CarSamples.Creates

	got, err := f.run(t, NewCarDataJob(), f.config(meetings(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Created)
	assert.Equal(t, 10, got.Updated)
	assert.Equal(t, 10, f.repos.CarSamples.Len())
	assert.Equal(t, writes, f.repos.CarSamples.Creates)
	assert.Equal(t, 0, f.repos.CarSamples.Updates, "unchanged rows are not written")
}

func TestCarDataDryRun(t *testing.T) {
	f := newFixture(t, twoMeetings())
	got, err := f.run(t, NewCarDataJob(),
		f.config(meetings(1, 2), func(c *config.ImportConfig) { c.DryRun = true }),
		WithRecorder(f.repos.Runs))
	require.NoError(t, err)

	assert.Equal(t, 10, got.Rows)
	assert.Equal(t, 0, f.repos.CarSamples.Len())
	assert.Equal(t, 0, f.repos.Meetings.Len())
	assert.Equal(t, 0, f.repos.Sessions.Len())
	assert.Equal(t, 0, f.repos.Runs.Len())
	assert.Equal(t, 0, f.tx.Calls)
	assert.Contains(t, f.out.String(), "Finished. Total rows: 10 (dry run – no database changes).")
}

func TestCarDataRefresh(t *testing.T) {
	f := newFixture(t, twoMeetings())
	_, err := f.run(t, NewCarDataJob(), f.config(meetings(2)))
	require.NoError(t, err)
	manual := &model.CarSample{
		MeetingKey: 2, SessionKey: 20, DriverNumber: 44, IsManual: true,
		Date: time.Date(2023, 9, 17, 11, 0, 0, 0, time.UTC),
	}
	stale := &model.CarSample{
		MeetingKey: 2, SessionKey: 20, DriverNumber: 44,
		Date: time.Date(2023, 9, 17, 11, 30, 0, 0, time.UTC),
	}
	require.NoError(t, f.repos.CarSamples.Create(context.Background(), manual))
	require.NoError(t, f.repos.CarSamples.Create(context.Background(), stale))

	got, err := f.run(t, NewCarDataJob(),
		f.config(meetings(2), func(c *config.ImportConfig) { c.Refresh = true }))
	require.NoError(t, err)

	assert.Equal(t, 10, got.Created)
	assert.Equal(t, 0, got.Updated)
	assert.Equal(t, 11, f.repos.CarSamples.Len())
	n, _ := f.repos.CarSamples.CountByMeeting(context.Background(), 2, true)
	assert.Equal(t, 1, n, "manual sample kept")
	_, err = f.repos.CarSamples.FindByKey(context.Background(), stale)
	assert.Error(t, err, "stale sample removed")
	assert.Contains(t, f.out.String(), "[+] meeting 2: replaced 11 rows with 10 rows")
}

func TestCarDataRefreshSkipsIncompleteMeeting(t *testing.T) {
	up := twoMeetings()
	up.routes[openf1.EndpointCarData] = func(q url.Values) (int, string) {
		return http.StatusNotFound, "gone"
	}
	f := newFixture(t, up)
	existing := &model.CarSample{
		MeetingKey: 2, SessionKey: 20, DriverNumber: 44,
		Date: time.Date(2023, 9, 17, 11, 30, 0, 0, time.UTC),
	}
	require.NoError(t, f.repos.CarSamples.Create(context.Background(), existing))

	got, err := f.run(t, NewCarDataJob(),
		f.config(meetings(2), func(c *config.ImportConfig) { c.Refresh = true }))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count(OutcomeFailed))
	assert.Equal(t, 1, f.repos.CarSamples.Len())
	assert.Contains(t, f.out.String(), "[!] meeting 2: refresh skipped")
}

func TestCarDataRefreshKeepsUnfilteredDrivers(t *testing.T) {
	f := newFixture(t, twoMeetings())
	ctx := context.Background()
	otherDriver := &model.CarSample{
		MeetingKey: 2, SessionKey: 20, DriverNumber: 1,
		Date: time.Date(2023, 9, 17, 11, 0, 0, 0, time.UTC),
	}
	stale := &model.CarSample{
		MeetingKey: 2, SessionKey: 20, DriverNumber: 44,
		Date: time.Date(2023, 9, 17, 11, 30, 0, 0, time.UTC),
	}
	require.NoError(t, f.repos.CarSamples.Create(ctx, otherDriver))
	require.NoError(t, f.repos.CarSamples.Create(ctx, stale))

	got, err := f.run(t, NewCarDataJob(), f.config(meetings(2),
		func(c *config.ImportConfig) {
			c.Refresh = true
			c.DriverNumbers = []int{44}
		}))
	require.NoError(t, err)

	assert.Equal(t, 10, got.Created)
	assert.Equal(t, 11, f.repos.CarSamples.Len())
	_, err = f.repos.CarSamples.FindByKey(ctx, otherDriver)
	assert.NoError(t, err, "sample of driver outside the filter kept")
	_, err = f.repos.CarSamples.FindByKey(ctx, stale)
	assert.Error(t, err, "stale sample of filtered driver removed")

	out := f.out.String()
	assert.Contains(t, out, "[+] meeting 2 session 20 driver 44: collected 10 rows for refresh")
	assert.Contains(t, out, "[+] meeting 2: replaced 1 rows with 10 rows")
}

func TestCarDataRefreshKeepsSamplesOutsideSpeedRange(t *testing.T) {
	f := newFixture(t, twoMeetings())
	ctx := context.Background()
	slow := &model.CarSample{
		MeetingKey: 2, SessionKey: 20, DriverNumber: 44, Speed: null.From(int32(80)),
		Date: time.Date(2023, 9, 17, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.repos.CarSamples.Create(ctx, slow))

	_, err := f.run(t, NewCarDataJob(), f.config(meetings(2),
		func(c *config.ImportConfig) {
			c.Refresh = true
			c.MinSpeed = 250
		}))
	require.NoError(t, err)
	assert.Contains(t, f.up.calls[1], "speed>=250")
	_, err = f.repos.CarSamples.FindByKey(ctx, slow)
	assert.NoError(t, err)
	assert.Contains(t, f.out.String(), "[+] meeting 2: replaced 0 rows with 10 rows")
}

func TestCarDataCreateOnly(t *testing.T) {
	f := newFixture(t, twoMeetings())
	_, err := f.run(t, NewCarDataJob(), f.config(meetings(1, 2)))
	require.NoError(t, err)

	got, err := f.run(t, NewCarDataJob(), f.config(meetings(1, 2),
		func(c *config.ImportConfig) { c.CreateOnly = true }))
	require.NoError(t, err)
	assert.Equal(t, 10, got.Rows)
	assert.Equal(t, 0, got.Created)
	assert.Equal(t, 0, got.Updated)
	assert.Equal(t, 10, got.Skipped)
	assert.Equal(t, 10, f.repos.CarSamples.Len())
	assert.Equal(t, 0, f.repos.CarSamples.Updates)
	assert.Contains(t, f.out.String(), "Finished. Total rows: 10, created: 0, updated: 0.")
}

func weatherUpstream() *upstream {
	return &upstream{routes: map[string]route{
		openf1.EndpointWeather: func(q url.Values) (int, string) {
			if q.Get("meeting_key") != "2" {
				return http.StatusUnprocessableEntity, `{"detail":"no results"}`
			}
			return http.StatusOK, `[
				{"meeting_key":2,"session_key":20,"date":"2023-09-17T12:00:00+00:00",
				 "air_temperature":30.5,"humidity":72,"rainfall":1,"wind_direction":180},
				{"meeting_key":2,"date":"2023-09-17T12:01:00+00:00",
				 "air_temperature":30.4,"rainfall":0}
			]`
		},
	}}
}

func TestWeather(t *testing.T) {
	f := newFixture(t, weatherUpstream())
	ctx := context.Background()
	got, err := f.run(t, WeatherJob{}, f.config(meetings(1, 2)))
	require.NoError(t, err)

	assert.Equal(t, []string{"/weather?meeting_key=1", "/weather?meeting_key=2"}, f.up.calls)
	assert.Equal(t, 2, got.Rows)
	assert.Equal(t, 2, got.Created)
	assert.Equal(t, 1, got.Count(OutcomeEmpty))
	assert.Equal(t, 2, f.repos.WeatherRows.Len())
	assert.Equal(t, 1, f.repos.Sessions.Len())

	wet, err := f.repos.WeatherRows.FindByKey(ctx, &model.Weather{
		MeetingKey: 2, Date: time.Date(2023, 9, 17, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(20), wet.SessionKey.GetOrZero())
	assert.True(t, wet.Rainfall.GetOrZero())
	assert.Equal(t, "30.5", wet.AirTemperature.Decimal.String())
	assert.Equal(t, int32(180), wet.WindDirection.GetOrZero())

	dry, err := f.repos.WeatherRows.FindByKey(ctx, &model.Weather{
		MeetingKey: 2, Date: time.Date(2023, 9, 17, 12, 1, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, dry.SessionKey.IsNull(), "weather without session")
	v, ok := dry.Rainfall.Get()
	assert.True(t, ok)
	assert.False(t, v)
}

func TestWeatherIdempotent(t *testing.T) {
	f := newFixture(t, weatherUpstream())
	_, err := f.run(t, WeatherJob{}, f.config(meetings(2)))
	require.NoError(t, err)

	got, err := f.run(t, WeatherJob{}, f.config(meetings(2)))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rows)
	assert.Equal(t, 0, got.Created)
	assert.Equal(t, got.Rows, got.Updated)
	assert.Equal(t, 2, f.repos.WeatherRows.Len())
	assert.Equal(t, 0, f.repos.WeatherRows.Updates)
}

func TestWeatherSessionFilter(t *testing.T) {
	f := newFixture(t, weatherUpstream())
	_, err := f.run(t, WeatherJob{}, f.config(meetings(2),
		func(c *config.ImportConfig) { c.SessionKeys = []int{20} }))
	require.NoError(t, err)
	assert.Equal(t, []string{"/weather?meeting_key=2&session_key=20"}, f.up.calls)
}

func TestFailedUnitDoesNotAbort(t *testing.T) {
	up := twoMeetings()
	up.routes[openf1.EndpointCarData] = func(q url.Values) (int, string) {
		if q.Get("meeting_key") == "1" {
			return http.StatusOK, `[{"meeting_key":`
		}
		return http.StatusOK, carData(2, 20, 3)
	}
	f := newFixture(t, up)
	got, err := f.run(t, NewCarDataJob(), f.config(meetings(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count(OutcomeFailed))
	assert.Equal(t, 3, f.repos.CarSamples.Len())
	assert.Contains(t, f.out.String(), "[!] meeting 1: failed")
}

func TestUnreachableUpstreamAborts(t *testing.T) {
	f := newFixture(t, twoMeetings())
	f.srv.Close()

	_, err := f.run(t, NewCarDataJob(), f.config(meetings(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
	assert.Contains(t, f.out.String(), "fallback to meeting-only queries")
	assert.Equal(t, 0, f.repos.CarSamples.Len())
}

func TestNoMeetings(t *testing.T) {
	f := newFixture(t, twoMeetings())
	_, err := f.run(t, LapsJob{}, f.config())
	assert.ErrorIs(t, err, ErrNoMeetings)
	assert.Empty(t, f.up.calls, "no upstream call")
}

func TestIneligibleRecordsCounted(t *testing.T) {
	up := &upstream{routes: map[string]route{
		openf1.EndpointPit: func(q url.Values) (int, string) {
			return http.StatusOK, `[
				{"meeting_key":2,"session_key":20,"driver_number":1,"lap_number":12,"pit_duration":22.5},
				{"meeting_key":2,"driver_number":1,"lap_number":13,"pit_duration":21.1},
				{"meeting_key":2,"session_key":20,"lap_number":14}
			]`
		},
	}}
	f := newFixture(t, up)
	got, err := f.run(t, PitJob{}, f.config(meetings(2),
		func(c *config.ImportConfig) { c.SessionKeys = []int{20} }))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, 1, got.Created)
	assert.Equal(t, 2, got.Invalid)
	pits := f.repos.Pits.All()
	require.Len(t, pits, 1)
	assert.Equal(t, "22.5", pits[0].PitDuration.Decimal.String())
}

func TestSessionKeysWithoutMeetings(t *testing.T) {
	up := &upstream{routes: map[string]route{
		openf1.EndpointLaps: func(q url.Values) (int, string) {
			if q.Has("meeting_key") {
				return http.StatusBadRequest, "unexpected meeting filter"
			}
			return http.StatusOK, `[{"meeting_key":2,"session_key":20,"driver_number":44,` +
				`"lap_number":1,"lap_duration":91.234,"segments_sector_1":[2049,null,2051]}]`
		},
	}}
	f := newFixture(t, up)
	got, err := f.run(t, LapsJob{}, f.config(func(c *config.ImportConfig) {
		c.SessionKeys = []int{20}
		c.DriverNumbers = []int{44}
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Created)
	require.Len(t, f.up.calls, 1)
	assert.Equal(t, "/laps?session_key=20&driver_number=44", f.up.calls[0])
	laps := f.repos.Laps.All()
	require.Len(t, laps, 1)
	assert.Equal(t, []int{2049, 0, 2051}, laps[0].Segments.Sector1)
}

func TestMeetingsCompletesStub(t *testing.T) {
	up := &upstream{routes: map[string]route{
		openf1.EndpointMeetings: func(q url.Values) (int, string) {
			return http.StatusOK, `[{"meeting_key":1219,"meeting_name":"Singapore Grand Prix",` +
				`"country_code":"sgp","country_name":"Singapore","year":2023,` +
				`"date_start":"2023-09-15T09:30:00+00:00"}]`
		},
	}}
	f := newFixture(t, up)
	_, _, err := f.repos.Meetings.Ensure(context.Background(), &model.Meeting{MeetingKey: 1219})
	require.NoError(t, err)

	got, err := f.run(t, MeetingsJob{}, f.config(func(c *config.ImportConfig) {
		c.Year = 2023
		c.CountryNames = []string{"Singapore"}
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Updated)
	assert.Equal(t, "/meetings?year=2023&country_name=Singapore", f.up.calls[0])
	m, err := f.repos.Meetings.FindByKey(context.Background(), &model.Meeting{MeetingKey: 1219})
	require.NoError(t, err)
	assert.Equal(t, "Singapore Grand Prix", m.MeetingName.GetOrZero())
	assert.Equal(t, "SGP", m.CountryCode.GetOrZero())
}

func TestSessionsMissingOnly(t *testing.T) {
	up := &upstream{routes: map[string]route{
		openf1.EndpointSessions: func(q url.Values) (int, string) {
			return http.StatusOK, fmt.Sprintf(`[{"meeting_key":%s,"session_key":%s0}]`,
				q.Get("meeting_key"), q.Get("meeting_key"))
		},
	}}
	f := newFixture(t, up)
	ctx := context.Background()
	for _, k := range []int32{1, 2} {
		_, _, err := f.repos.Meetings.Ensure(ctx, &model.Meeting{MeetingKey: k})
		require.NoError(t, err)
	}
	require.NoError(t, f.repos.Sessions.Create(ctx, &model.Session{SessionKey: 10, MeetingKey: 1}))

	got, err := f.run(t, SessionsJob{}, f.config(func(c *config.ImportConfig) {
		c.MissingOnly = true
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Created)
	assert.Equal(t, []string{"/sessions?meeting_key=2"}, f.up.calls)
	assert.Equal(t, 2, f.repos.Sessions.Len())
}

func TestDriversWithEntries(t *testing.T) {
	up := &upstream{routes: map[string]route{
		openf1.EndpointDrivers: func(q url.Values) (int, string) {
			return http.StatusOK, `[
				{"driver_number":1,"meeting_key":1219,"session_key":9161,"full_name":"Max VERSTAPPEN",
				 "name_acronym":"ver","country_code":"ned","team_name":"Red Bull Racing","team_colour":"#3671c6"},
				{"driver_number":44,"full_name":"Lewis HAMILTON","team_name":"Mercedes","team_colour":"zzz"}
			]`
		},
	}}
	f := newFixture(t, up)
	got, err := f.run(t, DriversJob{}, f.config(func(c *config.ImportConfig) {
		c.DriverNumbers = []int{1, 44}
		c.CountryCodes = []string{"NED", "GBR"}
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Created)
	assert.Equal(t,
		"/drivers?driver_number=1&driver_number=44&country_code=NED&country_code=GBR",
		f.up.calls[0])

	assert.Equal(t, 2, f.repos.Drivers.Len())
	d, err := f.repos.Drivers.FindByKey(context.Background(), &model.Driver{DriverNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, "VER", d.NameAcronym.GetOrZero())
	assert.Equal(t, "NED", d.CountryCode.GetOrZero())

	teams := f.repos.Teams.All()
	require.Len(t, teams, 1, "team of a record without meeting is not resolved")
	assert.Equal(t, "3671C6", teams[0].TeamColour.GetOrZero())

	entries := f.repos.Entries.All()
	require.Len(t, entries, 1)
	assert.Equal(t, int32(9161), entries[0].SessionKey)
	assert.Equal(t, "Red Bull Racing", entries[0].TeamName.GetOrZero())
	assert.Equal(t, "3671C6", entries[0].TeamColour.GetOrZero())
}

type capture struct {
	subject string
	payload any
}

func (c *capture) Publish(subject string, v any) error {
	c.subject = subject
	c.payload = v
	return nil
}

func TestRunIsRecordedAndPublished(t *testing.T) {
	f := newFixture(t, twoMeetings())
	pub := &capture{}
	_, err := f.run(t, NewCarDataJob(), f.config(meetings(1, 2)),
		WithRecorder(f.repos.Runs), WithPublisher(pub))
	require.NoError(t, err)

	run, err := f.repos.Runs.LoadLatest(context.Background(), "car-data")
	require.NoError(t, err)
	assert.Equal(t, int32(10), run.RowCount)
	assert.Equal(t, int32(10), run.Created)
	assert.Equal(t, int32(1), run.EmptyUnits)

	assert.Equal(t, "speedview.import.car-data", pub.subject)
	s, ok := pub.payload.(*Summary)
	require.True(t, ok)
	assert.Len(t, s.Units, 2)
}

func TestCancelStopsBetweenUnits(t *testing.T) {
	f := newFixture(t, twoMeetings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := f.config(meetings(1, 2), func(c *config.ImportConfig) { c.SessionKeys = []int{20} })
	env := NewEnv(cfg, openf1.New(cfg.BaseURL), f.repos, f.tx, f.out)
	_, err := NewRunner(env).Run(ctx, NewCarDataJob())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.up.calls)
}
