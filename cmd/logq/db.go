package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/logq/internal/infrastructure/config"
	"github.com/nerrad567/logq/internal/infrastructure/database"
	"github.com/nerrad567/logq/migrations"
)

// dbCommand manages the schema of the database behind the sqlite settings
// backend and the archive sink. serve migrates on start; these commands
// are for inspecting a database and stepping back after a bad upgrade.
func dbCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Inspect or migrate the SQLite schema",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "List applied and pending migrations",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDatabase(ctx, c.String("config"), func(db *database.DB) error {
						return printMigrations(ctx, out, db)
					})
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply pending migrations",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDatabase(ctx, c.String("config"), func(db *database.DB) error {
						_, pending, err := db.MigrationStatus(ctx, migrations.FS)
						if err != nil {
							return err
						}
						if err := db.Migrate(ctx, migrations.FS); err != nil {
							return err
						}
						_, err = fmt.Fprintf(out, "applied %d migrations\n", len(pending))
						return err
					})
				},
			},
			{
				Name:  "rollback",
				Usage: "Roll back the latest migration",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withDatabase(ctx, c.String("config"), func(db *database.DB) error {
						m, err := db.MigrateDown(ctx, migrations.FS)
						if err != nil {
							return err
						}
						if m == nil {
							_, err = fmt.Fprintln(out, "nothing to roll back")
							return err
						}
						_, err = fmt.Fprintf(out, "rolled back %s %s\n", m.Version, m.Name)
						return err
					})
				},
			},
		},
	}
}

func withDatabase(ctx context.Context, configPath string, fn func(*database.DB) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := openUnmigrated(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-mostly
	return fn(db)
}

func printMigrations(ctx context.Context, out io.Writer, db *database.DB) error {
	applied, pending, err := db.MigrationStatus(ctx, migrations.FS)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-16s %-8s %s", "VERSION", "STATE", "DETAIL")))
	for _, r := range applied {
		fmt.Fprintf(out, "%-16s %-8s %s\n", r.Version, "applied", r.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, m := range pending {
		fmt.Fprintf(out, "%-16s %-8s %s\n", m.Version, "pending", mutedStyle.Render(m.Name))
	}
	_, err = fmt.Fprintln(out, mutedStyle.Render(db.Path()))
	return err
}
