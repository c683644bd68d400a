package repository

import (
	"context"
	dbsql "database/sql"
	"errors"
	"fmt"
	"strings"

	"entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store groups the repositories over a single connection pool or, inside
// WithTx, over a single transaction.
type Store struct {
	db   *sqlx.DB
	inTx bool

	Users          *UserRepository
	Organizations  *OrganizationRepository
	Tasks          *TaskRepository
	Subtasks       *SubtaskRepository
	TimeLogs       *TimeLogRepository
	Comments       *CommentRepository
	SecurityEvents *SecurityEventRepository
}

func NewStore(db *sqlx.DB) *Store {
	return newStore(db, db, false)
}

func newStore(db *sqlx.DB, ext sqlx.ExtContext, inTx bool) *Store {
	q := querier{ext: ext}
	return &Store{
		db:             db,
		inTx:           inTx,
		Users:          &UserRepository{q},
		Organizations:  &OrganizationRepository{q},
		Tasks:          &TaskRepository{q},
		Subtasks:       &SubtaskRepository{q},
		TimeLogs:       &TimeLogRepository{q},
		Comments:       &CommentRepository{q},
		SecurityEvents: &SecurityEventRepository{q},
	}
}

// DB returns the underlying pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn inside a transaction. fn receives a Store bound to the
// transaction; returning an error rolls everything back. Calls nested inside
// fn reuse the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(newStore(s.db, tx, true)); err != nil {
		return rollback(tx, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rollback calls to tx.Rollback and wraps the given error
// with the rollback error if occurred.
func rollback(tx *sqlx.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}

// querier is embedded in every repository.
type querier struct {
	ext sqlx.ExtContext
}

func (q querier) builder() *sql.DialectBuilder {
	return sql.Dialect(q.ext.DriverName())
}

func (q querier) get(ctx context.Context, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
	if errors.Is(err, dbsql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (q querier) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

// getBuilt runs a query produced by the ent builder, whose placeholders
// already match the dialect.
func (q querier) getBuilt(ctx context.Context, dest any, sel *sql.Selector) error {
	query, args := sel.Query()
	err := sqlx.GetContext(ctx, q.ext, dest, query, args...)
	if errors.Is(err, dbsql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (q querier) selectBuilt(ctx context.Context, dest any, sel *sql.Selector) error {
	query, args := sel.Query()
	return sqlx.SelectContext(ctx, q.ext, dest, query, args...)
}

func (q querier) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.ext.ExecContext(ctx, q.ext.Rebind(query), args...)
	if err != nil {
		return 0, translateError(err)
	}
	return res.RowsAffected()
}

func (q querier) namedExec(ctx context.Context, query string, arg any) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, q.ext, query, arg)
	if err != nil {
		return 0, translateError(err)
	}
	return res.RowsAffected()
}

// translateError maps driver specific unique violations to ErrDuplicate.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, liteErr)
	}
	return err
}

func insertQuery(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		table, strings.Join(columns, ", "), strings.Join(columns, ", :"))
}

func updateQuery(table string, columns []string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = c + " = :" + c
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table, strings.Join(sets, ", "))
}

func columnList(columns []string) string {
	return strings.Join(columns, ", ")
}

// where applies the conjunction of preds to sel.
func where(sel *sql.Selector, preds []*sql.Predicate) *sql.Selector {
	if len(preds) > 0 {
		sel.Where(sql.And(preds...))
	}
	return sel
}

// Page bounds a listing.
type Page struct {
	Limit    int
	Offset   int
	SortBy   string
	SortDesc bool
}

func (p Page) apply(sel *sql.Selector, sortable map[string]string, fallback string) {
	column, ok := sortable[p.SortBy]
	if !ok {
		column = fallback
	}
	if p.SortDesc || p.SortBy == "" {
		sel.OrderBy(sql.Desc(column))
	} else {
		sel.OrderBy(sql.Asc(column))
	}
	// Stable tie-break for equal sort keys.
	sel.OrderBy(sql.Asc("id"))
	if p.Limit > 0 {
		sel.Limit(p.Limit)
	}
	if p.Offset > 0 {
		sel.Offset(p.Offset)
	}
}

// labelCount is a row of a GROUP BY count.
type labelCount struct {
	Label string `db:"label"`
	Count int    `db:"count"`
}

func toCountMap(rows []labelCount) map[string]int {
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Label] = r.Count
	}
	return out
}
