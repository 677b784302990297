package importrun

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/entity"
)

type (
	repo struct {
		base *entity.Repo[model.ImportRun, *model.ImportRun]
	}
)

var _ api.ImportRunRepository = (*repo)(nil)

func NewImportRunRepository(conn bob.Executor) api.ImportRunRepository {
	return &repo{
		base: entity.New[model.ImportRun, *model.ImportRun](conn),
	}
}

// Create stores run. A missing id is generated as UUIDv7.
func (r *repo) Create(ctx context.Context, run *model.ImportRun) error {
	if run.ID.IsNil() {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		run.ID = id
	}
	return r.base.Create(ctx, run)
}

func (r *repo) LoadByID(ctx context.Context, id string) (*model.ImportRun, error) {
	runID, err := uuid.FromString(id)
	if err != nil {
		return nil, err
	}
	return r.base.FindByKey(ctx, &model.ImportRun{ID: runID})
}

// LoadLatest returns the most recent run of job
func (r *repo) LoadLatest(ctx context.Context, job string) (*model.ImportRun, error) {
	mods := entity.WhereColumns(model.Columns{"job": job})
	mods = append(mods,
		sm.OrderBy(psql.Quote("started_at")).Desc(),
		sm.Limit(1))
	res, err := r.base.Select(ctx, mods...)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, api.ErrNotFound
	}
	return res[0], nil
}
