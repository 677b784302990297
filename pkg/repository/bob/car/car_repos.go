//nolint:whitespace // can't make both editor and linter happy
package car

import (
	"context"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/entity"
)

// rows per insert statement during a refresh
const insertChunkSize = 500

type (
	repo struct {
		*entity.Repo[model.CarSample, *model.CarSample]
	}
)

var _ api.CarSampleRepository = (*repo)(nil)

func NewCarSampleRepository(conn bob.Executor) api.CarSampleRepository {
	return &repo{
		Repo: entity.New[model.CarSample, *model.CarSample](conn),
	}
}

// ReplaceInScope removes the imported samples matched by scope and inserts
// the new batch. Manually entered samples are kept, a new sample with the
// same key as a manual one is dropped.
func (r *repo) ReplaceInScope(
	ctx context.Context,
	scope model.SampleScope,
	samples []*model.CarSample,
) (deleted, inserted int, err error) {
	mods := []bob.Mod[*dialect.DeleteQuery]{dm.From("car_sample")}
	for _, w := range scopeConditions(scope) {
		mods = append(mods, dm.Where(w))
	}
	res, err := bob.Exec(ctx, r.Executor(ctx), psql.Delete(mods...))
	if err != nil {
		return 0, 0, err
	}
	num, err := res.RowsAffected()
	if err != nil {
		return 0, 0, err
	}
	deleted = int(num)

	for start := 0; start < len(samples); start += insertChunkSize {
		end := min(start+insertChunkSize, len(samples))
		n, err := r.insertChunk(ctx, samples[start:end])
		if err != nil {
			return deleted, inserted, err
		}
		inserted += n
	}
	return deleted, inserted, nil
}

func (r *repo) insertChunk(ctx context.Context, samples []*model.CarSample) (int, error) {
	names := (&model.CarSample{}).Values().Names()
	mods := []bob.Mod[*dialect.InsertQuery]{im.Into("car_sample", names...)}
	for _, s := range samples {
		mods = append(mods, im.Values(entity.Args(s.Values(), names)...))
	}
	mods = append(mods, im.OnConflict(
		psql.Quote("session_key"),
		psql.Quote("driver_number"),
		psql.Quote("date"),
	).DoNothing())
	res, err := bob.Exec(ctx, r.Executor(ctx), psql.Insert(mods...))
	if err != nil {
		return 0, err
	}
	num, err := res.RowsAffected()
	return int(num), err
}

// CountInScope counts the imported samples matched by scope
func (r *repo) CountInScope(ctx context.Context, scope model.SampleScope) (int, error) {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(psql.Raw("count(*)")),
		sm.From("car_sample"),
	}
	for _, w := range scopeConditions(scope) {
		mods = append(mods, sm.Where(w))
	}
	num, err := bob.One(ctx, r.Executor(ctx), psql.Select(mods...),
		scan.SingleColumnMapper[int64])
	return int(num), err
}

// scopeConditions mirrors model.SampleScope.Matches
func scopeConditions(scope model.SampleScope) []bob.Expression {
	ret := []bob.Expression{
		psql.Quote("meeting_key").EQ(psql.Arg(scope.MeetingKey)),
		psql.Quote("is_manual").EQ(psql.Arg(false)),
	}
	if len(scope.SessionKeys) > 0 {
		ret = append(ret, psql.Quote("session_key").In(args(scope.SessionKeys)...))
	}
	if len(scope.DriverNumbers) > 0 {
		ret = append(ret, psql.Quote("driver_number").In(args(scope.DriverNumbers)...))
	}
	if v, ok := scope.MinSpeed.Get(); ok {
		ret = append(ret, psql.Quote("speed").GTE(psql.Arg(v)))
	}
	if v, ok := scope.MaxSpeed.Get(); ok {
		ret = append(ret, psql.Quote("speed").LTE(psql.Arg(v)))
	}
	return ret
}

func args[T any](values []T) []bob.Expression {
	ret := make([]bob.Expression, len(values))
	for i, v := range values {
		ret[i] = psql.Arg(v)
	}
	return ret
}

func (r *repo) CountByMeeting(
	ctx context.Context,
	meetingKey int32,
	manual bool,
) (int, error) {
	q := psql.Select(
		sm.Columns(psql.Raw("count(*)")),
		sm.From("car_sample"),
		sm.Where(psql.Quote("meeting_key").EQ(psql.Arg(meetingKey))),
		sm.Where(psql.Quote("is_manual").EQ(psql.Arg(manual))),
	)
	num, err := bob.One(ctx, r.Executor(ctx), q, scan.SingleColumnMapper[int64])
	return int(num), err
}
