// Package database provides SQLite connectivity for logq.
//
// The database holds two things:
//   - settings: module levels persisted by settings.SQLiteStore
//   - log_messages: the archive written by sinks.SQLite
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration Strategy:
//
// Migrations are embedded by the migrations package and applied in version
// order, each in its own transaction. Every .up.sql has a matching
// .down.sql so MigrateDown can roll the latest one back.
package database
