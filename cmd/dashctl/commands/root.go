// Package commands defines the dashctl command-line interface.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hllvc/dashctl/internal/app"
	"github.com/hllvc/dashctl/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "dashctl",
		Usage: "Admin client for the needs dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "otel log exporter (stdout|otlp-http|otlp-grpc)",
				Value: string(app.DefaultConfigLogExporter),
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "backend API base URL",
				Value: app.DefaultConfigBaseURL,
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "persistent token storage (file|keyring|env|session)",
				Value: string(app.DefaultConfigAuthStorage),
			},
			&cli.StringFlag{
				Name:  "auth--file",
				Usage: "token file path for file storage",
			},
			&cli.StringFlag{
				Name:  "auth--env-key",
				Usage: "environment variable name for env storage",
			},
			&cli.StringFlag{
				Name:  "auth--keyring-user",
				Usage: "user identifier for keyring storage",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			needsCommand(),
			pagesCommand(),
			statusesCommand(),
			colorsCommand(),
			ordersCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// withApp wraps a command action with config loading, logging setup, and
// application wiring.
func withApp(action func(ctx context.Context, a *app.App, cmd *cli.Command) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		shutdown, err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat), string(cfg.LogExporter))
		if err != nil {
			return fmt.Errorf("failed to set up observability layer: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()

		application, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}

		return action(ctx, application, cmd)
	}
}
