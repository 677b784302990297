// Package memrepo provides in-memory repositories for tests of the importer.
package memrepo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
)

var ErrDuplicate = errors.New("duplicate key")

type ptr[T any] interface {
	*T
	model.Entity
}

// Repo stores copies of entities by their natural key
type Repo[T any, PT ptr[T]] struct {
	mu      sync.Mutex
	rows    map[string]*T
	order   []string
	Finds   int
	Creates int
	Updates int
}

func NewRepo[T any, PT ptr[T]]() *Repo[T, PT] {
	return &Repo[T, PT]{rows: map[string]*T{}}
}

func keyOf(cols model.Columns) string {
	sb := strings.Builder{}
	for _, name := range cols.Names() {
		v := cols[name]
		if t, ok := v.(time.Time); ok {
			v = t.UTC().Format(time.RFC3339Nano)
		}
		fmt.Fprintf(&sb, "%s=%v;", name, v)
	}
	return sb.String()
}

func (r *Repo[T, PT]) FindByKey(ctx context.Context, e PT) (PT, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finds++
	row, ok := r.rows[keyOf(e.KeyColumns())]
	if !ok {
		return nil, api.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *Repo[T, PT]) Create(ctx context.Context, e PT) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(e)
}

func (r *Repo[T, PT]) create(e PT) error {
	k := keyOf(e.KeyColumns())
	if _, ok := r.rows[k]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, k)
	}
	r.Creates++
	cp := *e
	r.rows[k] = &cp
	r.order = append(r.order, k)
	return nil
}

//nolint:whitespace // editor/linter issue
func (r *Repo[T, PT]) Ensure(ctx context.Context, e PT) (
	stored PT, created bool, err error,
) {
	r.mu.Lock()
	k := keyOf(e.KeyColumns())
	if _, ok := r.rows[k]; !ok {
		if err := r.create(e); err != nil {
			r.mu.Unlock()
			return nil, false, err
		}
		created = true
	}
	r.mu.Unlock()
	stored, err = r.FindByKey(ctx, e)
	return stored, created, err
}

//nolint:whitespace // editor/linter issue
func (r *Repo[T, PT]) UpdateColumns(
	ctx context.Context,
	e PT,
	cols model.Columns,
) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[keyOf(e.KeyColumns())]
	if !ok {
		return 0, nil
	}
	r.Updates++
	v := reflect.ValueOf(row).Elem()
	for name, val := range cols {
		if err := setColumn(v, name, val); err != nil {
			return 0, err
		}
	}
	return 1, nil
}

func setColumn(v reflect.Value, name string, val any) error {
	t := v.Type()
	for i := range t.NumField() {
		if t.Field(i).Tag.Get("db") == name {
			v.Field(i).Set(reflect.ValueOf(val))
			return nil
		}
	}
	return fmt.Errorf("unknown column %s", name)
}

// All returns copies of the stored rows in insert order
func (r *Repo[T, PT]) All() []PT {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]PT, 0, len(r.rows))
	for _, k := range r.order {
		if row, ok := r.rows[k]; ok {
			cp := *row
			ret = append(ret, &cp)
		}
	}
	return ret
}

func (r *Repo[T, PT]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *Repo[T, PT]) deleteWhere(match func(PT) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	kept := r.order[:0]
	for _, k := range r.order {
		row, ok := r.rows[k]
		if !ok {
			continue
		}
		if match(row) {
			delete(r.rows, k)
			n++
			continue
		}
		kept = append(kept, k)
	}
	r.order = kept
	return n
}

type MeetingRepo struct {
	*Repo[model.Meeting, *model.Meeting]
	sessions *SessionRepo
}

func (r *MeetingRepo) LoadKeys(ctx context.Context) ([]int32, error) {
	ret := []int32{}
	for _, m := range r.All() {
		ret = append(ret, m.MeetingKey)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret, nil
}

func (r *MeetingRepo) LoadKeysWithoutSessions(ctx context.Context) ([]int32, error) {
	keys, _ := r.LoadKeys(ctx)
	ret := []int32{}
	for _, k := range keys {
		if s, _ := r.sessions.LoadByMeeting(ctx, k); len(s) == 0 {
			ret = append(ret, k)
		}
	}
	return ret, nil
}

type SessionRepo struct {
	*Repo[model.Session, *model.Session]
}

//nolint:whitespace // editor/linter issue
func (r *SessionRepo) LoadByMeeting(ctx context.Context, meetingKey int32) (
	[]*model.Session, error,
) {
	ret := []*model.Session{}
	for _, s := range r.All() {
		if s.MeetingKey == meetingKey {
			ret = append(ret, s)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].SessionKey < ret[j].SessionKey })
	return ret, nil
}

type CarSampleRepo struct {
	*Repo[model.CarSample, *model.CarSample]
}

//nolint:whitespace // editor/linter issue
func (r *CarSampleRepo) ReplaceInScope(
	ctx context.Context,
	scope model.SampleScope,
	samples []*model.CarSample,
) (deleted, inserted int, err error) {
	deleted = r.deleteWhere(scope.Matches)
	for _, s := range samples {
		if err := r.Create(ctx, s); err == nil {
			inserted++
		}
	}
	return deleted, inserted, nil
}

func (r *CarSampleRepo) CountInScope(ctx context.Context, scope model.SampleScope) (int, error) {
	n := 0
	for _, c := range r.All() {
		if scope.Matches(c) {
			n++
		}
	}
	return n, nil
}

//nolint:whitespace // editor/linter issue
func (r *CarSampleRepo) CountByMeeting(
	ctx context.Context,
	meetingKey int32,
	manual bool,
) (int, error) {
	n := 0
	for _, c := range r.All() {
		if c.MeetingKey == meetingKey && c.IsManual == manual {
			n++
		}
	}
	return n, nil
}

type ImportRunRepo struct {
	*Repo[model.ImportRun, *model.ImportRun]
}

func (r *ImportRunRepo) Create(ctx context.Context, run *model.ImportRun) error {
	if run.ID.IsNil() {
		run.ID = uuid.Must(uuid.NewV7())
	}
	return r.Repo.Create(ctx, run)
}

func (r *ImportRunRepo) LoadByID(ctx context.Context, id string) (*model.ImportRun, error) {
	runID, err := uuid.FromString(id)
	if err != nil {
		return nil, err
	}
	return r.FindByKey(ctx, &model.ImportRun{ID: runID})
}

func (r *ImportRunRepo) LoadLatest(ctx context.Context, job string) (*model.ImportRun, error) {
	var ret *model.ImportRun
	for _, run := range r.All() {
		if run.Job == job && (ret == nil || run.StartedAt.After(ret.StartedAt)) {
			ret = run
		}
	}
	if ret == nil {
		return nil, api.ErrNotFound
	}
	return ret, nil
}

// Repositories implements api.Repositories on top of in-memory repos
type Repositories struct {
	Meetings    *MeetingRepo
	Sessions    *SessionRepo
	Teams       *Repo[model.Team, *model.Team]
	Drivers     *Repo[model.Driver, *model.Driver]
	Entries     *Repo[model.DriverEntry, *model.DriverEntry]
	CarSamples  *CarSampleRepo
	Laps        *Repo[model.Lap, *model.Lap]
	Pits        *Repo[model.Pit, *model.Pit]
	WeatherRows *Repo[model.Weather, *model.Weather]
	Runs        *ImportRunRepo
}

var _ api.Repositories = (*Repositories)(nil)

func New() *Repositories {
	sessions := &SessionRepo{NewRepo[model.Session]()}
	return &Repositories{
		Meetings:    &MeetingRepo{Repo: NewRepo[model.Meeting](), sessions: sessions},
		Sessions:    sessions,
		Teams:       NewRepo[model.Team](),
		Drivers:     NewRepo[model.Driver](),
		Entries:     NewRepo[model.DriverEntry](),
		CarSamples:  &CarSampleRepo{NewRepo[model.CarSample]()},
		Laps:        NewRepo[model.Lap](),
		Pits:        NewRepo[model.Pit](),
		WeatherRows: NewRepo[model.Weather](),
		Runs:        &ImportRunRepo{NewRepo[model.ImportRun]()},
	}
}

func (r *Repositories) Meeting() api.MeetingRepository { return r.Meetings }
func (r *Repositories) Session() api.SessionRepository { return r.Sessions }

func (r *Repositories) Team() api.EntityRepository[*model.Team] { return r.Teams }

func (r *Repositories) Driver() api.EntityRepository[*model.Driver] { return r.Drivers }

func (r *Repositories) DriverEntry() api.EntityRepository[*model.DriverEntry] {
	return r.Entries
}

func (r *Repositories) CarSample() api.CarSampleRepository { return r.CarSamples }
func (r *Repositories) Lap() api.EntityRepository[*model.Lap] { return r.Laps }
func (r *Repositories) Pit() api.EntityRepository[*model.Pit] { return r.Pits }

func (r *Repositories) Weather() api.EntityRepository[*model.Weather] {
	return r.WeatherRows
}

func (r *Repositories) ImportRun() api.ImportRunRepository { return r.Runs }

// TxManager runs functions directly, there is no rollback
type TxManager struct {
	Calls int
}

var _ api.TransactionManager = (*TxManager)(nil)

func (t *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}
