package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/infrastructure/config"
	"github.com/nerrad567/logq/internal/infrastructure/database"
	"github.com/nerrad567/logq/migrations"
	"github.com/nerrad567/logq/settings"
)

// openDatabase opens and migrates the SQLite database.
//
// Parameters:
//   - ctx: Context for connection and migrations
//   - cfg: Application configuration
//
// Returns:
//   - *database.DB: Migrated database; the caller closes it
//   - error: If the database cannot be opened or migrated
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := openUnmigrated(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Migration error takes precedence
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// openUnmigrated opens the database as it is on disk.
func openUnmigrated(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// openStore opens the settings backend selected by cfg.Settings.Backend.
//
// Parameters:
//   - ctx: Context for SQLite reads; also used by the returned reload func
//   - cfg: Application configuration
//   - db: Open database; only used by the sqlite backend
//
// Returns:
//   - logq.Store: The store, or nil for the "none" backend
//   - func() error: Re-reads the backing file or table into the store
//   - error: If the store cannot be opened
func openStore(ctx context.Context, cfg *config.Config, db *database.DB) (logq.Store, func() error, error) {
	switch cfg.Settings.Backend {
	case config.SettingsBackendFile:
		store, err := settings.OpenFile(cfg.Settings.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening settings file: %w", err)
		}
		return store, store.Reload, nil

	case config.SettingsBackendSQLite:
		if db == nil {
			return nil, nil, fmt.Errorf("sqlite settings backend: %w", errNoDatabase)
		}
		store, err := settings.OpenSQLite(ctx, db.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("opening settings table: %w", err)
		}
		return store, func() error { return store.Reload(ctx) }, nil

	default:
		return nil, func() error { return nil }, nil
	}
}
