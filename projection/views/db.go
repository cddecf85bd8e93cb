// Package views holds the SQL read-model projections (component G),
// grounded on fastygo-backend/repository/postgres/{task_repo,user_repo}.go's
// raw-SQL-over-pgxpool style.
package views

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the projections need. Defining it here
// rather than depending on pgxpool directly lets tests substitute a fake.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}
