package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY CHECK (length(id) > 0),
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		photo_url TEXT NOT NULL,
		lat REAL,
		lon REAL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_stories_created_at ON stories (created_at);
	CREATE INDEX IF NOT EXISTS idx_stories_name ON stories (name);
	CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		story_id TEXT NOT NULL,
		story_data TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_bookmarks_story_id ON bookmarks (story_id);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE IF EXISTS bookmarks;
	DROP TABLE IF EXISTS stories;
	`)
	if err != nil {
		return err
	}
	return nil
}
