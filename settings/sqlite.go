package settings

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// syncTimeout bounds a Sync call on a SQLiteStore.
const syncTimeout = 5 * time.Second

// entryKey identifies one staged row.
type entryKey struct {
	section string
	key     string
}

// SQLiteStore keeps settings in the settings table:
//
//	settings(section TEXT, key TEXT, value TEXT, updated_at TEXT)
//
// All rows are read when the store is opened. Set stages values in memory
// and Sync upserts the staged rows in a single transaction.
//
// The table is created by the database migrations; the store does not
// manage schema.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type SQLiteStore struct {
	sections
	db *sql.DB

	stagedMu sync.Mutex
	staged   map[entryKey]string
	now      func() time.Time
}

// OpenSQLite creates a SQLiteStore on db and loads every stored row.
//
// Parameters:
//   - ctx: Context for the initial load
//   - db: Open database with the settings table migrated
//
// Returns:
//   - *SQLiteStore: Loaded store
//   - error: If the rows cannot be read
func OpenSQLite(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{
		sections: newSections(),
		db:       db,
		staged:   make(map[entryKey]string),
		now:      time.Now,
	}
	s.onSet = s.stage
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// stage records a changed value for the next Sync. Called with s.mu held.
func (s *SQLiteStore) stage(section, key, value string) {
	s.stagedMu.Lock()
	defer s.stagedMu.Unlock()
	s.staged[entryKey{section, key}] = value
}

// Reload discards in-memory and staged values and re-reads every row.
func (s *SQLiteStore) Reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT section, key, value FROM settings")
	if err != nil {
		return fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	data := make(map[string]map[string]string)
	for rows.Next() {
		var section, key, value string
		if err := rows.Scan(&section, &key, &value); err != nil {
			return fmt.Errorf("scanning settings row: %w", err)
		}
		if data[section] == nil {
			data[section] = make(map[string]string)
		}
		data[section][key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating settings: %w", err)
	}

	s.mu.Lock()
	s.replace(data)
	s.mu.Unlock()

	s.stagedMu.Lock()
	clear(s.staged)
	s.stagedMu.Unlock()
	return nil
}

// Sync persists staged values with a default timeout.
func (s *SQLiteStore) Sync() error {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	return s.SyncContext(ctx)
}

// SyncContext upserts every value changed since the last sync.
//
// Returns:
//   - error: If the transaction fails; staged values are kept for a retry
func (s *SQLiteStore) SyncContext(ctx context.Context) error {
	s.stagedMu.Lock()
	defer s.stagedMu.Unlock()

	if len(s.staged) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting settings transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO settings (section, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (section, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing settings upsert: %w", err)
	}
	defer stmt.Close()

	updatedAt := s.now().UTC().Format(time.RFC3339)
	for k, v := range s.staged {
		if _, err := stmt.ExecContext(ctx, k.section, k.key, v, updatedAt); err != nil {
			return fmt.Errorf("upserting setting %s/%s: %w", k.section, k.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}
	clear(s.staged)
	return nil
}
