// Package migrations embeds the SQL migration files into the binary.
//
// Files follow the YYYYMMDD_HHMMSS_description.{up,down}.sql convention
// understood by database.Migrate:
//
//	db.Migrate(ctx, migrations.FS)
package migrations

import "embed"

// FS holds every migration at the root of the embedded filesystem.
//
//go:embed *.sql
var FS embed.FS
