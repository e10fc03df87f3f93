// Package migrations holds the versioned schema of the local database.
// Migrations are written to be idempotent: opening a store that was already
// upgraded re-runs nothing, and a partially applied upgrade can be retried.
package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

// Up brings the schema to the current version. The goose version table is the
// store's monotonically increasing schema version.
func Up(ctx context.Context, db *sql.DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
