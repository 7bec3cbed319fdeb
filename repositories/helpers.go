package repositories

import (
	"context"
	"database/sql"
)

// SQLExecutor lets repository methods run against either the pool or a
// transaction the caller owns.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
