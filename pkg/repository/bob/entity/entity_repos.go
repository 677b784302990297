//nolint:whitespace // can't make both editor and linter happy
package entity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/repository/api"
	bobCtx "github.com/mpapenbr/speedview-sync/pkg/repository/bob/context"
)

// Ptr is the pointer constraint used by Repo. *T must implement model.Entity.
type Ptr[T any] interface {
	*T
	model.Entity
}

// Repo is the natural key based repository shared by all entity tables.
// Statements are built from the column maps of model.Entity.
type Repo[T any, PT Ptr[T]] struct {
	conn bob.Executor
}

var _ api.EntityRepository[*model.Meeting] = (*Repo[model.Meeting, *model.Meeting])(nil)

func New[T any, PT Ptr[T]](conn bob.Executor) *Repo[T, PT] {
	return &Repo[T, PT]{conn: conn}
}

var timestampColumns = []string{"created_at", "updated_at"}

func (r *Repo[T, PT]) FindByKey(ctx context.Context, e PT) (PT, error) {
	res, err := r.Select(ctx, WhereColumns(e.KeyColumns())...)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, api.ErrNotFound
	}
	return res[0], nil
}

// Select reads all rows matching mods. Columns and table are provided by Repo.
func (r *Repo[T, PT]) Select(
	ctx context.Context,
	mods ...bob.Mod[*dialect.SelectQuery],
) ([]PT, error) {
	var proto PT = new(T)
	cols := append(proto.Values().Names(), timestampColumns...)
	all := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(Quoted(cols)...),
		sm.From(proto.Table()),
	}
	all = append(all, mods...)
	res, err := bob.All(ctx, r.getExecutor(ctx), psql.Select(all...),
		scan.StructMapper[T]())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []PT{}, nil
		}
		return nil, err
	}
	ret := make([]PT, len(res))
	for i := range res {
		ret[i] = &res[i]
	}
	return ret, nil
}

func (r *Repo[T, PT]) Create(ctx context.Context, e PT) error {
	_, err := bob.Exec(ctx, r.getExecutor(ctx), InsertQuery(e.Table(), e.Values()))
	return err
}

func (r *Repo[T, PT]) Ensure(ctx context.Context, e PT) (
	stored PT, created bool, err error,
) {
	q := InsertQuery(e.Table(), e.Values(),
		im.OnConflict(Quoted(e.KeyColumns().Names())...).DoNothing())
	res, err := bob.Exec(ctx, r.getExecutor(ctx), q)
	if err != nil {
		return nil, false, err
	}
	num, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	stored, err = r.FindByKey(ctx, e)
	return stored, num > 0, err
}

func (r *Repo[T, PT]) UpdateColumns(
	ctx context.Context,
	e PT,
	cols model.Columns,
) (int, error) {
	if len(cols) == 0 {
		return 0, nil
	}
	mods := []bob.Mod[*dialect.UpdateQuery]{um.Table(e.Table())}
	for _, name := range cols.Names() {
		mods = append(mods, um.SetCol(name).ToArg(cols[name]))
	}
	mods = append(mods, um.SetCol("updated_at").To(psql.Raw("now()")))
	keys := e.KeyColumns()
	for _, name := range keys.Names() {
		mods = append(mods, um.Where(psql.Quote(name).EQ(psql.Arg(keys[name]))))
	}
	res, err := bob.Exec(ctx, r.getExecutor(ctx), psql.Update(mods...))
	if err != nil {
		return 0, err
	}
	num, err := res.RowsAffected()
	return int(num), err
}

// Delete removes all rows matching where, returns number of rows deleted.
func (r *Repo[T, PT]) Delete(ctx context.Context, where model.Columns) (int, error) {
	var proto PT = new(T)
	mods := []bob.Mod[*dialect.DeleteQuery]{dm.From(proto.Table())}
	for _, name := range where.Names() {
		mods = append(mods, dm.Where(psql.Quote(name).EQ(psql.Arg(where[name]))))
	}
	res, err := bob.Exec(ctx, r.getExecutor(ctx), psql.Delete(mods...))
	if err != nil {
		return 0, err
	}
	num, err := res.RowsAffected()
	return int(num), err
}

func (r *Repo[T, PT]) getExecutor(ctx context.Context) bob.Executor {
	if executor := bobCtx.FromContext(ctx); executor != nil {
		return executor
	}
	return r.conn
}

// Executor returns the executor of a running transaction or the base connection
func (r *Repo[T, PT]) Executor(ctx context.Context) bob.Executor {
	return r.getExecutor(ctx)
}

// InsertQuery builds an insert for one row. Columns are written in name order.
func InsertQuery(
	table string,
	values model.Columns,
	extra ...bob.Mod[*dialect.InsertQuery],
) bob.Query {
	names := values.Names()
	mods := []bob.Mod[*dialect.InsertQuery]{
		im.Into(table, names...),
		im.Values(Args(values, names)...),
	}
	mods = append(mods, extra...)
	return psql.Insert(mods...)
}

// Args returns one placeholder per column in the given order
func Args(values model.Columns, names []string) []bob.Expression {
	ret := make([]bob.Expression, len(names))
	for i, name := range names {
		ret[i] = psql.Arg(values[name])
	}
	return ret
}

func Quoted(names []string) []any {
	ret := make([]any, len(names))
	for i, name := range names {
		ret[i] = psql.Quote(name)
	}
	return ret
}

// WhereColumns creates an equality condition for each column
func WhereColumns(cols model.Columns) []bob.Mod[*dialect.SelectQuery] {
	ret := make([]bob.Mod[*dialect.SelectQuery], 0, len(cols))
	for _, name := range cols.Names() {
		ret = append(ret, sm.Where(psql.Quote(name).EQ(psql.Arg(cols[name]))))
	}
	return ret
}
