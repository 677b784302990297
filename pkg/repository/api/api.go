package api

import (
	"context"
	"errors"

	"github.com/mpapenbr/speedview-sync/pkg/model"
)

var ErrNotFound = errors.New("no rows in result set")

type Repositories interface {
	Meeting() MeetingRepository
	Session() SessionRepository
	Team() EntityRepository[*model.Team]
	Driver() EntityRepository[*model.Driver]
	DriverEntry() EntityRepository[*model.DriverEntry]
	CarSample() CarSampleRepository
	Lap() EntityRepository[*model.Lap]
	Pit() EntityRepository[*model.Pit]
	Weather() EntityRepository[*model.Weather]
	ImportRun() ImportRunRepository
}

// EntityRepository reads and writes rows by their natural key.
// The key columns of the passed entity select the row.
type EntityRepository[E model.Entity] interface {
	// FindByKey returns ErrNotFound if no row matches the key of e
	FindByKey(ctx context.Context, e E) (E, error)
	Create(ctx context.Context, e E) error
	// Ensure inserts e unless a row with the same key exists.
	// The stored row is returned together with the information if it was created.
	Ensure(ctx context.Context, e E) (stored E, created bool, err error)
	// UpdateColumns writes cols to the row matching the key of e
	UpdateColumns(ctx context.Context, e E, cols model.Columns) (int, error)
}

type MeetingRepository interface {
	EntityRepository[*model.Meeting]
	// LoadKeys returns the keys of all stored meetings in ascending order
	LoadKeys(ctx context.Context) ([]int32, error)
	// LoadKeysWithoutSessions returns the keys of meetings without any session
	LoadKeysWithoutSessions(ctx context.Context) ([]int32, error)
}

type SessionRepository interface {
	EntityRepository[*model.Session]
	LoadByMeeting(ctx context.Context, meetingKey int32) ([]*model.Session, error)
}

type CarSampleRepository interface {
	EntityRepository[*model.CarSample]
	// ReplaceInScope deletes the samples matched by scope and inserts
	// samples. Callers are expected to run this inside a transaction.
	ReplaceInScope(ctx context.Context, scope model.SampleScope, samples []*model.CarSample) (
		deleted, inserted int, err error,
	)
	CountInScope(ctx context.Context, scope model.SampleScope) (int, error)
	CountByMeeting(ctx context.Context, meetingKey int32, manual bool) (int, error)
}

type ImportRunRepository interface {
	Create(ctx context.Context, run *model.ImportRun) error
	LoadByID(ctx context.Context, id string) (*model.ImportRun, error)
	LoadLatest(ctx context.Context, job string) (*model.ImportRun, error)
}

type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
