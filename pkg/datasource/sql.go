package datasource

import (
	"context"
	"database/sql"
	"time"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// SQLSource is a pooled database/sql handle shared by every service of a
// relational catalog
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource applies the pool settings to db and wraps it
func NewSQLSource(db *sql.DB, pool config.PoolConfig) *SQLSource {
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}
	return &SQLSource{db: db}
}

// DB returns the underlying pool
func (s *SQLSource) DB() *sql.DB { return s.db }

// Close closes the pool
func (s *SQLSource) Close(context.Context) error {
	return s.db.Close()
}

// SQL extracts the pool from a resource opened as an SQLSource
func SQL(r Resource) (*sql.DB, error) {
	s, ok := r.(*SQLSource)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "data source is %T, not a SQL source", r)
	}
	return s.db, nil
}

// Template runs metadata queries against a pool with a per-call timeout
type Template struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTemplate creates a template; a zero timeout leaves the caller's deadline untouched
func NewTemplate(db *sql.DB, timeout time.Duration) *Template {
	return &Template{db: db, timeout: timeout}
}

// DB returns the pool behind the template
func (t *Template) DB() *sql.DB { return t.db }

func (t *Template) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.timeout)
}

// Query runs query and maps every row with mapper
func Query[T any](ctx context.Context, t *Template, mapper func(*sql.Rows) (T, error), query string, args ...any) ([]T, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "metadata query failed")
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := mapper(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to scan metadata row")
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "metadata query failed")
	}
	return out, nil
}

// QueryStrings runs a query returning a single string column
func (t *Template) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	return Query(ctx, t, func(rows *sql.Rows) (string, error) {
		var s string
		err := rows.Scan(&s)
		return s, err
	}, query, args...)
}

// Exec runs a statement
func (t *Template) Exec(ctx context.Context, query string, args ...any) error {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "statement failed")
	}
	return nil
}

// InTx runs fn inside a transaction, committing on success
func (t *Template) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to commit transaction")
	}
	return nil
}
