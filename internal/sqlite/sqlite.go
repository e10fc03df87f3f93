package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dwikidiandra/dstory/internal/migrations"
	"github.com/dwikidiandra/dstory/pkg/config"
	"github.com/dwikidiandra/dstory/pkg/logger"
	"go.uber.org/fx"
	_ "modernc.org/sqlite"
)

// Opts holds dependencies for opening the local database.
type Opts struct {
	fx.In
	LC     fx.Lifecycle
	Logger logger.Logger
	Config *config.Config
}

// Open opens a SQLite database at the given path with the pragmas the store
// relies on (WAL for concurrent readers, busy timeout for cooperative writers).
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

// New opens the local database and manages its lifecycle. Migrations run on
// start so the schema version is current before any store touches it.
func New(opts Opts) (*sql.DB, error) {
	db, err := Open(opts.Config.Storage.Path)
	if err != nil {
		return nil, err
	}

	opts.LC.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := db.PingContext(ctx); err != nil {
					return fmt.Errorf("failed to ping sqlite: %w", err)
				}
				if err := migrations.Up(ctx, db); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				opts.Logger.Info("Connected to sqlite", "path", opts.Config.Storage.Path)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return db.Close()
			},
		},
	)

	return db, nil
}
