package importrun_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/importrun"
	"github.com/mpapenbr/speedview-sync/testsupport/basedata"
	"github.com/mpapenbr/speedview-sync/testsupport/testdb"
)

func TestCreateAndLoad(t *testing.T) {
	pool := testdb.InitTestDB()
	db := bob.NewDB(stdlib.OpenDBFromPool(pool))
	r := importrun.NewImportRunRepository(db)
	ctx := context.Background()

	start := basedata.TestTime()
	first := &model.ImportRun{
		Job: "laps", StartedAt: start, FinishedAt: start.Add(time.Minute),
		RowCount: 10, Created: 10,
	}
	second := &model.ImportRun{
		Job: "laps", StartedAt: start.Add(time.Hour), FinishedAt: start.Add(2 * time.Hour),
		RowCount: 10, Updated: 10,
	}
	assert.NilError(t, r.Create(ctx, first))
	assert.NilError(t, r.Create(ctx, second))
	assert.Assert(t, !first.ID.IsNil())

	got, err := r.LoadByID(ctx, first.ID.String())
	assert.NilError(t, err)
	assert.Equal(t, int32(10), got.Created)

	latest, err := r.LoadLatest(ctx, "laps")
	assert.NilError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = r.LoadLatest(ctx, "weather")
	assert.ErrorIs(t, err, api.ErrNotFound)
}
