package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/wallhub/internal"
	pkgconfig "github.com/starford/wallhub/pkg/config"
)

var version = "dev"

const fetchUsage = "<source> <YYYY-MM|YYYY-MM-DD>"

// withApp loads the config, builds the application and runs fn with it.
func withApp(ctx context.Context, cmd *cli.Command, fn func(*internal.App) error) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	app, err := internal.New(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("app init error: %w", err)
	}
	defer app.Close()

	if !found {
		slog.Info("config file not found, using defaults", slog.String("path", configPath))
	}
	return fn(app)
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("%w: expected %s", internal.ErrUsage, fetchUsage)
	}
	source, target := cmd.Args().Get(0), cmd.Args().Get(1)
	return withApp(ctx, cmd, func(app *internal.App) error {
		return app.Fetch(ctx, source, target, cmd.Bool("notify"))
	})
}

func notifyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "notify",
		Usage: "Send new entries to the chat webhook",
	}
}

func main() {
	cmd := &cli.Command{
		Name:      "wallhub",
		Usage:     "Archive daily wallpapers, write their stories and publish the gallery",
		Version:   version,
		ArgsUsage: fetchUsage,
		Action:    fetchAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("WALLHUB_CONFIG"),
			},
			notifyFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:      "fetch",
				Usage:     "Fetch one source for a day or a month, then regenerate the documents",
				ArgsUsage: fetchUsage,
				Flags:     []cli.Flag{notifyFlag()},
				Action:    fetchAction,
			},
			{
				Name:  "backfill",
				Usage: "Write stories for archived entries that have none",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, func(app *internal.App) error { return app.Backfill(ctx) })
				},
			},
			{
				Name:  "index",
				Usage: "Regenerate the gallery and the README index",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, func(app *internal.App) error { return app.RegenerateIndexes(ctx) })
				},
			},
			{
				Name:      "notify",
				Usage:     "Send the image, announcement and story of one entry",
				ArgsUsage: "<source> <YYYY-MM-DD>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return fmt.Errorf("%w: expected <source> <YYYY-MM-DD>", internal.ErrUsage)
					}
					source, date := cmd.Args().Get(0), cmd.Args().Get(1)
					return withApp(ctx, cmd, func(app *internal.App) error {
						return app.Notify(ctx, source, date)
					})
				},
			},
			{
				Name:  "serve",
				Usage: "Serve the gallery preview, the JSON API and live updates",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, func(app *internal.App) error { return app.Serve(ctx) })
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve the archive as MCP tools on stdio",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, func(app *internal.App) error { return app.ServeMCP(ctx) })
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, internal.ErrUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\nusage: wallhub [--config path] [--notify] %s\n", err, fetchUsage)
			os.Exit(1)
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
