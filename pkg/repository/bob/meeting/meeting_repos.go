//nolint:whitespace // can't make both editor and linter happy
package meeting

import (
	"context"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/entity"
)

type (
	repo struct {
		*entity.Repo[model.Meeting, *model.Meeting]
	}
)

var _ api.MeetingRepository = (*repo)(nil)

func NewMeetingRepository(conn bob.Executor) api.MeetingRepository {
	return &repo{
		Repo: entity.New[model.Meeting, *model.Meeting](conn),
	}
}

func (r *repo) LoadKeys(ctx context.Context) ([]int32, error) {
	return r.loadKeys(ctx)
}

func (r *repo) LoadKeysWithoutSessions(ctx context.Context) ([]int32, error) {
	return r.loadKeys(ctx,
		sm.Where(psql.Raw(
			"NOT EXISTS (SELECT 1 FROM session s WHERE s.meeting_key = meeting.meeting_key)")))
}

func (r *repo) loadKeys(
	ctx context.Context,
	where ...bob.Mod[*dialect.SelectQuery],
) ([]int32, error) {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(psql.Quote("meeting_key")),
		sm.From("meeting"),
		sm.OrderBy(psql.Quote("meeting_key")).Asc(),
	}
	mods = append(mods, where...)
	return bob.All(ctx, r.Executor(ctx), psql.Select(mods...),
		scan.SingleColumnMapper[int32])
}
