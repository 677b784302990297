package resolver

import (
	"context"
	"errors"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/importer/cache"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
)

// ErrIneligible is returned for records which cannot be placed in the
// meeting/session hierarchy.
var ErrIneligible = errors.New("record misses a parent key")

// Ref holds the parent references of one upstream record
type Ref struct {
	MeetingKey   *int
	SessionKey   *int
	DriverNumber *int
	TeamName     string
	TeamColour   string
	// RequireSession marks records of session scoped entities
	RequireSession bool
}

// Resolved holds the local parent rows. Session, Driver and Team are nil if
// the record did not reference them.
type Resolved struct {
	Meeting *model.Meeting
	Session *model.Session
	Driver  *model.Driver
	Team    *model.Team
}

type (
	Option   func(*Resolver)
	Resolver struct {
		caches *cache.Set
		repos  api.Repositories
		tx     api.TransactionManager
		dryRun bool
		l      *log.Logger
	}
)

// WithDryRun disables all writes. Missing parents are cached as unsaved stubs.
func WithDryRun(b bool) Option {
	return func(r *Resolver) {
		r.dryRun = b
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		r.l = l
	}
}

//nolint:whitespace // editor/linter issue
func New(
	caches *cache.Set,
	repos api.Repositories,
	tx api.TransactionManager,
	opts ...Option,
) *Resolver {
	ret := &Resolver{
		caches: caches,
		repos:  repos,
		tx:     tx,
		l:      log.Default().Named("resolver"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Resolve makes sure all parents referenced by ref exist locally.
// Parents are resolved in the order meeting, session, driver, team.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (*Resolved, error) {
	if ref.MeetingKey == nil || (ref.RequireSession && ref.SessionKey == nil) {
		return nil, ErrIneligible
	}
	ret := &Resolved{}
	var err error
	if ret.Meeting, err = r.Meeting(ctx, int32(*ref.MeetingKey)); err != nil {
		return nil, err
	}
	if ref.SessionKey != nil {
		ret.Session, err = r.Session(ctx, int32(*ref.SessionKey), ret.Meeting.MeetingKey)
		if err != nil {
			return nil, err
		}
	}
	if ref.DriverNumber != nil {
		if ret.Driver, err = r.Driver(ctx, int16(*ref.DriverNumber)); err != nil {
			return nil, err
		}
	}
	if ref.TeamName != "" {
		if ret.Team, err = r.Team(ctx, ref.TeamName, ref.TeamColour); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (r *Resolver) Meeting(ctx context.Context, key int32) (*model.Meeting, error) {
	return r.caches.Meetings.GetOrCreate(ctx, key,
		func(ctx context.Context, key int32) (*model.Meeting, error) {
			return ensure[*model.Meeting](ctx, r, r.repos.Meeting(), &model.Meeting{MeetingKey: key})
		})
}

// Session returns the session with key. A stored session pointing to another
// meeting is moved to meetingKey.
//
//nolint:whitespace // editor/linter issue
func (r *Resolver) Session(
	ctx context.Context,
	key, meetingKey int32,
) (*model.Session, error) {
	s, err := r.caches.Sessions.GetOrCreate(ctx, key,
		func(ctx context.Context, key int32) (*model.Session, error) {
			return ensure[*model.Session](ctx, r, r.repos.Session(),
				&model.Session{SessionKey: key, MeetingKey: meetingKey})
		})
	if err != nil {
		return nil, err
	}
	if s.MeetingKey == meetingKey {
		return s, nil
	}
	r.l.Info("session moved to other meeting",
		log.Int32("session", key),
		log.Int32("from", s.MeetingKey),
		log.Int32("to", meetingKey))
	moved := *s
	moved.MeetingKey = meetingKey
	if err := update[*model.Session](ctx, r, r.repos.Session(), &moved,
		model.Columns{"meeting_key": meetingKey}); err != nil {
		return nil, err
	}
	r.caches.Sessions.Put(ctx, key, &moved)
	return &moved, nil
}

func (r *Resolver) Driver(ctx context.Context, number int16) (*model.Driver, error) {
	return r.caches.Drivers.GetOrCreate(ctx, number,
		func(ctx context.Context, number int16) (*model.Driver, error) {
			return ensure(ctx, r, r.repos.Driver(), &model.Driver{DriverNumber: number})
		})
}

// Team returns the team with name. A differing colour replaces the stored one.
// Invalid colours are ignored.
func (r *Resolver) Team(ctx context.Context, name, colour string) (*model.Team, error) {
	name = model.Truncate(name, 64)
	c, err := model.NormalizeColour(colour)
	if err != nil {
		if colour != "" {
			r.l.Warn("ignoring team colour",
				log.String("team", name), log.String("colour", colour))
		}
		c = ""
	}
	t, err := r.caches.Teams.GetOrCreate(ctx, name,
		func(ctx context.Context, name string) (*model.Team, error) {
			seed := &model.Team{TeamName: name}
			if c != "" {
				seed.TeamColour = null.From(c)
			}
			return ensure(ctx, r, r.repos.Team(), seed)
		})
	if err != nil {
		return nil, err
	}
	if c == "" || t.TeamColour.GetOrZero() == c {
		return t, nil
	}
	r.l.Debug("team colour changed",
		log.String("team", name),
		log.String("from", t.TeamColour.GetOrZero()),
		log.String("to", c))
	changed := *t
	changed.TeamColour = null.From(c)
	if err := update(ctx, r, r.repos.Team(), &changed,
		model.Columns{"team_colour": changed.TeamColour}); err != nil {
		return nil, err
	}
	r.caches.Teams.Put(ctx, name, &changed)
	return &changed, nil
}

// update writes cols in a transaction of its own
//
//nolint:whitespace // editor/linter issue
func update[E model.Entity](
	ctx context.Context,
	r *Resolver,
	store api.EntityRepository[E],
	e E,
	cols model.Columns,
) error {
	if r.dryRun {
		return nil
	}
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := store.UpdateColumns(ctx, e, cols)
		return err
	})
}

// ensure loads the row for the key of seed and creates it if missing
//
//nolint:whitespace // editor/linter issue
func ensure[E model.Entity](
	ctx context.Context,
	r *Resolver,
	store api.EntityRepository[E],
	seed E,
) (E, error) {
	if r.dryRun {
		found, err := store.FindByKey(ctx, seed)
		if errors.Is(err, api.ErrNotFound) {
			return seed, nil
		}
		return found, err
	}
	var ret E
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		stored, created, err := store.Ensure(ctx, seed)
		if err != nil {
			return err
		}
		if created {
			r.l.Debug("created stub", log.String("table", seed.Table()),
				log.Any("key", seed.KeyColumns()))
		}
		ret = stored
		return nil
	})
	return ret, err
}
