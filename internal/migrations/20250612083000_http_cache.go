package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upHttpCache, downHttpCache)
}

func upHttpCache(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS http_cache (
		class TEXT NOT NULL,
		url TEXT NOT NULL,
		status INTEGER NOT NULL,
		headers TEXT NOT NULL,
		body BLOB NOT NULL,
		stored_at INTEGER NOT NULL,
		PRIMARY KEY (class, url)
	);
	CREATE INDEX IF NOT EXISTS idx_http_cache_stored_at ON http_cache (class, stored_at);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downHttpCache(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE IF EXISTS http_cache;
	`)
	if err != nil {
		return err
	}
	return nil
}
