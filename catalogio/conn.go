package catalogio

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// pgxConn is the slice of *pgxpool.Conn's method set every extractor
// needs. Defined narrowly so extractors are trivially testable against
// a pgxmock-style fake without depending on the pool type directly.
type pgxConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
