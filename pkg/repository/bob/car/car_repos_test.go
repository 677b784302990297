//nolint:funlen //ok for this test code
package car_test

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/car"
	"github.com/mpapenbr/speedview-sync/testsupport/basedata"
	"github.com/mpapenbr/speedview-sync/testsupport/testdb"
)

func sample(offset time.Duration, speed int32, manual bool) *model.CarSample {
	return &model.CarSample{
		MeetingKey:   1219,
		SessionKey:   9161,
		DriverNumber: 55,
		Date:         basedata.TestTime().Add(offset),
		Speed:        null.From(speed),
		IsManual:     manual,
	}
}

func TestReplaceInScope(t *testing.T) {
	pool := testdb.InitTestDB()
	db := bob.NewDB(stdlib.OpenDBFromPool(pool))
	basedata.CreateSampleSession(pool)
	r := car.NewCarSampleRepository(db)
	ctx := context.Background()

	assert.NilError(t, r.Create(ctx, sample(0, 100, false)))
	assert.NilError(t, r.Create(ctx, sample(time.Second, 110, false)))
	assert.NilError(t, r.Create(ctx, sample(2*time.Second, 120, true)))

	fresh := []*model.CarSample{
		sample(0, 200, false),
		sample(0, 201, false), // duplicate key within the batch
		sample(3*time.Second, 230, false),
		sample(2*time.Second, 999, false), // same key as the manual sample
	}
	deleted, inserted, err := r.ReplaceInScope(ctx, model.SampleScope{MeetingKey: 1219}, fresh)
	assert.NilError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 2, inserted)

	manual, err := r.CountByMeeting(ctx, 1219, true)
	assert.NilError(t, err)
	assert.Equal(t, 1, manual)
	imported, err := r.CountByMeeting(ctx, 1219, false)
	assert.NilError(t, err)
	assert.Equal(t, 2, imported)

	kept, err := r.FindByKey(ctx, sample(2*time.Second, 0, false))
	assert.NilError(t, err)
	assert.Assert(t, kept.IsManual)
	assert.Equal(t, int32(120), kept.Speed.GetOrZero())
}

func TestReplaceEmptyBatch(t *testing.T) {
	pool := testdb.InitTestDB()
	db := bob.NewDB(stdlib.OpenDBFromPool(pool))
	basedata.CreateSampleSession(pool)
	r := car.NewCarSampleRepository(db)
	ctx := context.Background()

	assert.NilError(t, r.Create(ctx, sample(0, 100, false)))
	deleted, inserted, err := r.ReplaceInScope(ctx, model.SampleScope{MeetingKey: 4711}, nil)
	assert.NilError(t, err)
	assert.Equal(t, 0, deleted)
	assert.Equal(t, 0, inserted)
}

func TestReplaceKeepsSamplesOutsideScope(t *testing.T) {
	pool := testdb.InitTestDB()
	db := bob.NewDB(stdlib.OpenDBFromPool(pool))
	basedata.CreateSampleSession(pool)
	r := car.NewCarSampleRepository(db)
	ctx := context.Background()

	assert.NilError(t, r.Create(ctx, sample(0, 100, false)))
	assert.NilError(t, r.Create(ctx, sample(time.Second, 250, false)))
	assert.NilError(t, r.Create(ctx, sample(2*time.Second, 310, false)))
	slow := sample(3*time.Second, 0, false)
	slow.Speed = null.Val[int32]{}
	assert.NilError(t, r.Create(ctx, slow))

	scope := model.SampleScope{
		MeetingKey:    1219,
		SessionKeys:   []int32{9161},
		DriverNumbers: []int16{55},
		MinSpeed:      null.From(int32(200)),
		MaxSpeed:      null.From(int32(300)),
	}
	n, err := r.CountInScope(ctx, scope)
	assert.NilError(t, err)
	assert.Equal(t, 1, n)

	deleted, inserted, err := r.ReplaceInScope(ctx, scope,
		[]*model.CarSample{sample(4*time.Second, 260, false)})
	assert.NilError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 1, inserted)

	imported, err := r.CountByMeeting(ctx, 1219, false)
	assert.NilError(t, err)
	assert.Equal(t, 4, imported)

	other := scope
	other.DriverNumbers = []int16{44}
	n, err = r.CountInScope(ctx, other)
	assert.NilError(t, err)
	assert.Equal(t, 0, n)
}
