package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/logq/internal/api"
	"github.com/nerrad567/logq/internal/infrastructure/config"
)

// tokenCommand issues an admin bearer token for the API.
func tokenCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue an admin API bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "subject",
				Usage: "Token subject (sub claim)",
				Value: "admin",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime (0 uses security.jwt.access_token_ttl)",
			},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			return issueToken(out, c.String("config"), c.String("subject"), c.Duration("ttl"))
		},
	}
}

// issueToken signs a token with the configured secret and prints it.
func issueToken(out io.Writer, configPath, subject string, ttl time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Security.JWT.Secret == "" {
		return errNoSecret
	}
	if ttl <= 0 {
		ttl = cfg.GetTokenTTL()
	}

	token, err := api.IssueToken(cfg.Security.JWT.Secret, subject, ttl)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
