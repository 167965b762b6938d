package sinks

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/logq"
)

// sqliteWriteTimeout bounds a single archive insert.
const sqliteWriteTimeout = 5 * time.Second

// SQLite archives every line as a row of the log_messages table created by
// the migrations. Rows from one process share a session id so runs can be
// told apart.
type SQLite struct {
	db        *sql.DB
	sessionID string
	now       func() time.Time

	mu     sync.Mutex
	stmt   *sql.Stmt
	closed bool
}

// NewSQLite prepares the archive insert on db.
//
// Parameters:
//   - ctx: Context for preparing the statement
//   - db: Database with the log_messages table migrated
//   - sessionID: Session id stored on every row; empty generates a UUID
//
// Returns:
//   - *SQLite: Ready sink
//   - error: If the statement cannot be prepared
func NewSQLite(ctx context.Context, db *sql.DB, sessionID string) (*SQLite, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO log_messages (session_id, logged_at, level, module, origin, line)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing archive insert: %w", err)
	}

	return &SQLite{
		db:        db,
		sessionID: sessionID,
		now:       time.Now,
		stmt:      stmt,
	}, nil
}

// SessionID returns the id stored on every row written by this sink.
func (s *SQLite) SessionID() string {
	return s.sessionID
}

// Write implements logq.Sink.
func (s *SQLite) Write(message string) bool {
	level, module, origin := "", logq.UnknownModule, ""
	if line, ok := logq.ParseLine(message); ok {
		level, module, origin = line.Level.String(), line.Module, line.Origin
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqliteWriteTimeout)
	defer cancel()

	_, err := s.stmt.ExecContext(ctx,
		s.sessionID,
		s.now().UTC().Format(time.RFC3339Nano),
		level,
		module,
		origin,
		message,
	)
	return err == nil
}

// Close releases the prepared statement. The database stays open.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.stmt.Close(); err != nil {
		return fmt.Errorf("closing archive statement: %w", err)
	}
	return nil
}
