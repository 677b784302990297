package meeting_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/meeting"
	"github.com/mpapenbr/speedview-sync/testsupport/basedata"
	"github.com/mpapenbr/speedview-sync/testsupport/testdb"
)

func TestLoadKeys(t *testing.T) {
	pool := testdb.InitTestDB()
	db := bob.NewDB(stdlib.OpenDBFromPool(pool))
	basedata.CreateSampleSession(pool)
	r := meeting.NewMeetingRepository(db)
	ctx := context.Background()

	for _, k := range []int32{1300, 1140} {
		assert.NilError(t, r.Create(ctx, &model.Meeting{MeetingKey: k}))
	}

	keys, err := r.LoadKeys(ctx)
	assert.NilError(t, err)
	assert.Assert(t, is.DeepEqual([]int32{1140, 1219, 1300}, keys))

	keys, err = r.LoadKeysWithoutSessions(ctx)
	assert.NilError(t, err)
	assert.Assert(t, is.DeepEqual([]int32{1140, 1300}, keys))
}
