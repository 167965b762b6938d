package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/infrastructure/config"
	"github.com/nerrad567/logq/internal/infrastructure/database"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// levelsCommand edits the stored module levels without a running service.
// A running service picks the changes up on POST /levels/reload or, with
// settings.watch, as soon as the file is written.
func levelsCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "levels",
		Usage: "Show or change stored module levels",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the default level and every stored module level",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withLevels(ctx, c.String("config"), false, func(reg *logq.LevelRegistry) error {
						return printLevels(out, reg)
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Store a module level",
				ArgsUsage: "<module> <level>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("expected <module> <level>, got %d arguments", c.Args().Len())
					}
					module := c.Args().Get(0)
					level, err := logq.ParseLevel(c.Args().Get(1))
					if err != nil {
						return err
					}
					if module == "" || module == logq.DefaultLevelKey {
						return fmt.Errorf("invalid module name %q", module)
					}
					return withLevels(ctx, c.String("config"), true, func(reg *logq.LevelRegistry) error {
						reg.SetLevel(module, level, true)
						_, err := fmt.Fprintf(out, "%s = %s\n", module, level)
						return err
					})
				},
			},
			{
				Name:      "default",
				Usage:     "Store the default level for modules without their own",
				ArgsUsage: "<level>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected <level>, got %d arguments", c.Args().Len())
					}
					level, err := logq.ParseLevel(c.Args().First())
					if err != nil {
						return err
					}
					return withLevels(ctx, c.String("config"), true, func(reg *logq.LevelRegistry) error {
						reg.SetDefaultLevel(level)
						_, err := fmt.Fprintf(out, "%s = %s\n", logq.DefaultLevelKey, level)
						return err
					})
				},
			},
		},
	}
}

// withLevels loads the stored levels into a registry, calls fn and, when
// save is set and fn succeeds, writes the registry back.
func withLevels(ctx context.Context, configPath string, save bool, fn func(*logq.LevelRegistry) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Settings.Backend == config.SettingsBackendNone {
		return errNoStore
	}

	var db *database.DB
	if cfg.NeedsDatabase() {
		if db, err = openDatabase(ctx, cfg); err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // Sync errors are reported by Save
	}

	store, _, err := openStore(ctx, cfg, db)
	if err != nil {
		return err
	}

	// Stored entries load as final. The offline editor always replaces
	// them, whatever final policy the service runs with.
	reg := logq.NewLevelRegistry(cfg.DefaultLevel(), logq.FinalOverridableByFinal)
	reg.SetSection(cfg.Logger.Section)
	if err := reg.Load(store); err != nil {
		return fmt.Errorf("loading levels: %w", err)
	}
	if err := fn(reg); err != nil {
		return err
	}
	if !save {
		return nil
	}
	if err := reg.Save(store); err != nil {
		return fmt.Errorf("saving levels: %w", err)
	}
	return nil
}

// printLevels writes the default level and the module table.
func printLevels(out io.Writer, reg *logq.LevelRegistry) error {
	modules := reg.Modules()

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-32s %s", "MODULE", "LEVEL")))
	fmt.Fprintf(out, "%-32s %s\n", logq.DefaultLevelKey, reg.DefaultLevel())
	for _, m := range modules {
		fmt.Fprintf(out, "%-32s %s\n", m.Module, m.Level)
	}
	_, err := fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d stored modules", len(modules))))
	return err
}
