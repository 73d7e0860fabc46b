package db

import (
	"context"
	"database/sql"

	"erdgraph/internal/dialect"
	"erdgraph/internal/logger"
)

// Connector hands out dedicated connections. *sql.DB satisfies it.
type Connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// Scanner is the row view passed to mappers.
type Scanner interface {
	Scan(dest ...any) error
}

// RowMapper converts the current row into a T.
type RowMapper[T any] func(Scanner) (T, error)

// Engine runs named-parameter queries. Every call takes one connection and one prepared statement
// and releases both before returning.
type Engine struct {
	conns Connector
	style dialect.Placeholder
}

// NewEngine returns an Engine that binds parameters using style.
func NewEngine(conns Connector, style dialect.Placeholder) *Engine {
	return &Engine{conns: conns, style: style}
}

// Placeholder returns the marker style the engine rewrites to.
func (e *Engine) Placeholder() dialect.Placeholder {
	return e.style
}

type queryOptions struct {
	fetchSize int
}

// QueryOption tunes a multi-row query.
type QueryOption func(*queryOptions)

// WithFetchSize hints how many rows the caller expects. Rows are streamed from the driver either way;
// the hint sizes the result slice up front.
func WithFetchSize(n int) QueryOption {
	return func(o *queryOptions) {
		if n > 0 {
			o.fetchSize = n
		}
	}
}

func (e *Engine) fail(stage Stage, query string, err error) error {
	logger.Error("failed to %s query: %v\n%s", stage, err, query)
	return &QueryError{Stage: stage, Query: query, Err: err}
}

// withStatement rewrites query, then scopes a connection and a prepared statement around run.
func (e *Engine) withStatement(ctx context.Context, query string, params map[string]any, run func(*sql.Stmt, []any) error) error {
	raw, args, err := Rewrite(query, params, e.style)
	if err != nil {
		return e.fail(StageRewrite, query, err)
	}

	conn, err := e.conns.Conn(ctx)
	if err != nil {
		return e.fail(StageAcquire, query, err)
	}
	defer conn.Close()

	stmt, err := conn.PrepareContext(ctx, raw)
	if err != nil {
		return e.fail(StagePrepare, query, err)
	}
	defer stmt.Close()

	return run(stmt, args)
}

// QueryEach streams every row of the result to fn, in result-set order.
func (e *Engine) QueryEach(ctx context.Context, query string, params map[string]any, fn func(Scanner) error) error {
	return e.withStatement(ctx, query, params, func(stmt *sql.Stmt, args []any) error {
		rows, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return e.fail(StageExecute, query, err)
		}
		defer rows.Close()

		for rows.Next() {
			if err := fn(rows); err != nil {
				return e.fail(StageMap, query, err)
			}
		}
		if err := rows.Err(); err != nil {
			return e.fail(StageExecute, query, err)
		}
		return nil
	})
}

// QueryMany maps every row of the result. An empty result is a non-nil empty slice.
func QueryMany[T any](ctx context.Context, e *Engine, query string, params map[string]any, mapper RowMapper[T], opts ...QueryOption) ([]T, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	result := make([]T, 0, o.fetchSize)
	err := e.QueryEach(ctx, query, params, func(row Scanner) error {
		v, err := mapper(row)
		if err != nil {
			return err
		}
		result = append(result, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QuerySingle maps the first row of the result. ok is false when there is no row.
func QuerySingle[T any](ctx context.Context, e *Engine, query string, params map[string]any, mapper RowMapper[T]) (v T, ok bool, err error) {
	err = e.withStatement(ctx, query, params, func(stmt *sql.Stmt, args []any) error {
		rows, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return e.fail(StageExecute, query, err)
		}
		defer rows.Close()

		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return e.fail(StageExecute, query, err)
			}
			return nil
		}
		if v, err = mapper(rows); err != nil {
			return e.fail(StageMap, query, err)
		}
		ok = true
		return nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, ok, nil
}

func scalar[T any](row Scanner) (T, error) {
	var v T
	err := row.Scan(&v)
	return v, err
}

// QueryString returns the first column of the first row as a string.
func (e *Engine) QueryString(ctx context.Context, query string, params map[string]any) (string, bool, error) {
	return QuerySingle(ctx, e, query, params, scalar[string])
}

// QueryInt64 returns the first column of the first row as an int64; handy for counts and ids.
func (e *Engine) QueryInt64(ctx context.Context, query string, params map[string]any) (int64, bool, error) {
	return QuerySingle(ctx, e, query, params, scalar[int64])
}

// QueryBool returns the first column of the first row as a bool.
func (e *Engine) QueryBool(ctx context.Context, query string, params map[string]any) (bool, bool, error) {
	return QuerySingle(ctx, e, query, params, scalar[bool])
}

// Exec runs an insert, update or delete and returns the number of affected rows.
func (e *Engine) Exec(ctx context.Context, query string, params map[string]any) (int64, error) {
	var affected int64
	err := e.withStatement(ctx, query, params, func(stmt *sql.Stmt, args []any) error {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return e.fail(StageExecute, query, err)
		}
		if affected, err = res.RowsAffected(); err != nil {
			logger.Debug("rows affected unavailable: %v", err)
			affected = -1
		}
		return nil
	})
	return affected, err
}

// ExecReturningKey runs an insert and returns the generated key. ok is false when the driver does not
// report one (PostgreSQL drivers never do; use QuerySingle with RETURNING there).
func (e *Engine) ExecReturningKey(ctx context.Context, query string, params map[string]any) (id int64, ok bool, err error) {
	err = e.withStatement(ctx, query, params, func(stmt *sql.Stmt, args []any) error {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return e.fail(StageExecute, query, err)
		}
		if id, err = res.LastInsertId(); err != nil {
			logger.Debug("generated key unavailable: %v", err)
			id = 0
			return nil
		}
		ok = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return id, ok, nil
}
