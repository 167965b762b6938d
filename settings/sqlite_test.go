package settings

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/infrastructure/database"
	"github.com/nerrad567/logq/migrations"
)

// openTestDB creates a migrated database in a temporary directory.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "logq.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestSQLiteStore_SyncAndReopen(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, err := OpenSQLite(ctx, db.DB)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}

	s.BeginSection("logq")
	s.Set("*default*", "LOG")
	s.Set("db", "ERROR")
	s.EndSection()
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	s.BeginSection("logq")
	s.Set("db", "DEBUG")
	s.EndSection()
	if err := s.SyncContext(ctx); err != nil {
		t.Fatalf("SyncContext() error = %v", err)
	}

	var rows int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings").Scan(&rows); err != nil {
		t.Fatalf("COUNT error = %v", err)
	}
	if rows != 2 {
		t.Errorf("settings rows = %d, want 2 (upsert, not insert)", rows)
	}

	reopened, err := OpenSQLite(ctx, db.DB)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	reopened.BeginSection("logq")
	defer reopened.EndSection()
	if got := strings.Join(reopened.Keys(), ","); got != "*default*,db" {
		t.Errorf("Keys() = %q", got)
	}
	if got := reopened.Get("db", ""); got != "DEBUG" {
		t.Errorf("Get(db) = %q, want DEBUG", got)
	}
}

func TestSQLiteStore_SyncWithoutChanges(t *testing.T) {
	db := openTestDB(t)

	s, err := OpenSQLite(context.Background(), db.DB)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := s.Sync(); err != nil {
		t.Errorf("Sync() with nothing staged error = %v", err)
	}
}

func TestSQLiteStore_MissingTable(t *testing.T) {
	db, err := database.Open(context.Background(), database.Config{Path: filepath.Join(t.TempDir(), "bare.db")})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	if _, err := OpenSQLite(context.Background(), db.DB); err == nil {
		t.Error("OpenSQLite() without settings table succeeded")
	}
}

func TestSQLiteStore_LoggerPersistence(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, err := OpenSQLite(ctx, db.DB)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}

	l := logq.New(logq.WithStore(s, true))
	l.SetLevel("archive", logq.LevelWarningFine, false)
	if err := l.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	reopened, err := OpenSQLite(ctx, db.DB)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	next := logq.New(logq.WithStore(reopened, true))
	defer next.Shutdown(ctx) //nolint:errcheck // Test cleanup

	ml, ok := next.Levels().GetLevel("archive")
	if !ok || ml.Level != logq.LevelWarningFine || !ml.Final {
		t.Errorf("GetLevel(archive) = %+v, %v", ml, ok)
	}
}
