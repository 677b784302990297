package bob

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/car"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/entity"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/importrun"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/meeting"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/session"
)

type bobRepositories struct {
	meetingRepository     api.MeetingRepository
	sessionRepository     api.SessionRepository
	teamRepository        api.EntityRepository[*model.Team]
	driverRepository      api.EntityRepository[*model.Driver]
	driverEntryRepository api.EntityRepository[*model.DriverEntry]
	carSampleRepository   api.CarSampleRepository
	lapRepository         api.EntityRepository[*model.Lap]
	pitRepository         api.EntityRepository[*model.Pit]
	weatherRepository     api.EntityRepository[*model.Weather]
	importRunRepository   api.ImportRunRepository
}

var _ api.Repositories = (*bobRepositories)(nil)

func NewRepositoriesFromPool(pool *pgxpool.Pool) api.Repositories {
	db := bob.NewDB(stdlib.OpenDBFromPool(pool))
	return NewRepositories(db)
}

func NewRepositories(db bob.DB) api.Repositories {
	return &bobRepositories{
		meetingRepository:     meeting.NewMeetingRepository(db),
		sessionRepository:     session.NewSessionRepository(db),
		teamRepository:        entity.New[model.Team](db),
		driverRepository:      entity.New[model.Driver](db),
		driverEntryRepository: entity.New[model.DriverEntry](db),
		carSampleRepository:   car.NewCarSampleRepository(db),
		lapRepository:         entity.New[model.Lap](db),
		pitRepository:         entity.New[model.Pit](db),
		weatherRepository:     entity.New[model.Weather](db),
		importRunRepository:   importrun.NewImportRunRepository(db),
	}
}

func (r *bobRepositories) Meeting() api.MeetingRepository {
	return r.meetingRepository
}

func (r *bobRepositories) Session() api.SessionRepository {
	return r.sessionRepository
}

func (r *bobRepositories) Team() api.EntityRepository[*model.Team] {
	return r.teamRepository
}

func (r *bobRepositories) Driver() api.EntityRepository[*model.Driver] {
	return r.driverRepository
}

func (r *bobRepositories) DriverEntry() api.EntityRepository[*model.DriverEntry] {
	return r.driverEntryRepository
}

func (r *bobRepositories) CarSample() api.CarSampleRepository {
	return r.carSampleRepository
}

func (r *bobRepositories) Lap() api.EntityRepository[*model.Lap] {
	return r.lapRepository
}

func (r *bobRepositories) Pit() api.EntityRepository[*model.Pit] {
	return r.pitRepository
}

func (r *bobRepositories) Weather() api.EntityRepository[*model.Weather] {
	return r.weatherRepository
}

func (r *bobRepositories) ImportRun() api.ImportRunRepository {
	return r.importRunRepository
}
