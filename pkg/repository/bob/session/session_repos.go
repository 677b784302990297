package session

import (
	"context"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob/entity"
)

type (
	repo struct {
		*entity.Repo[model.Session, *model.Session]
	}
)

var _ api.SessionRepository = (*repo)(nil)

func NewSessionRepository(conn bob.Executor) api.SessionRepository {
	return &repo{
		Repo: entity.New[model.Session, *model.Session](conn),
	}
}

//nolint:whitespace // editor/linter issue
func (r *repo) LoadByMeeting(ctx context.Context, meetingKey int32) (
	[]*model.Session, error,
) {
	mods := entity.WhereColumns(model.Columns{"meeting_key": meetingKey})
	mods = append(mods, sm.OrderBy(psql.Quote("session_key")).Asc())
	return r.Select(ctx, mods...)
}
