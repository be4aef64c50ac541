// Package internal wires configuration, storage and the pipeline stages into
// the commands exposed by the CLI.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/catalog"
	"github.com/starford/wallhub/internal/ledger"
	"github.com/starford/wallhub/internal/mirror"
	"github.com/starford/wallhub/internal/models"
	"github.com/starford/wallhub/internal/notify"
	"github.com/starford/wallhub/internal/publish"
	"github.com/starford/wallhub/internal/render"
	"github.com/starford/wallhub/internal/storage"
	"github.com/starford/wallhub/internal/story"
)

// ErrUsage marks invalid command arguments.
var ErrUsage = errors.New("usage")

// App holds the long-lived collaborators of every command.
type App struct {
	cfg       *Config
	logger    *slog.Logger
	version   string
	archive   *archive.Archive
	ledger    *ledger.DB
	catalog   *catalog.Catalog
	renderer  *render.Renderer
	publisher *publish.Publisher
	// stories is nil when story generation is not configured.
	stories story.Generator
}

// New builds the application from the given options. Optional features whose
// settings are absent (stories, webhook, mirror) are disabled, not errors.
func New(ctx context.Context, opts ...Option) (*App, error) {
	app := &application{logOutput: os.Stderr, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg.App, app.logOutput)
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("wallpapers", cfg.Paths.Wallpapers),
		slog.String("ledger", cfg.Ledger.Path),
		slog.Int("sources", len(cfg.Sources)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Paths.Wallpapers, 0o755); err != nil {
		return nil, fmt.Errorf("create wallpapers dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Paths.Wallpapers)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	arch := archive.New(store)

	if dir := filepath.Dir(cfg.Ledger.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	db, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	cat := catalog.New(arch, catalogSources(cfg), logger)
	renderer := render.New(cat, render.Options{
		GalleryPath:    cfg.Paths.Gallery,
		ReadmePath:     cfg.Paths.Readme,
		GalleryPrefix:  cfg.Paths.GalleryPrefix,
		ReadmePrefix:   cfg.Paths.ReadmePrefix,
		ReadmeMaxItems: cfg.Display.MaxItemsPerSource,
	}, logger)

	var stories story.Generator
	if cfg.Story.Enabled() {
		c, err := story.New(story.Options{
			APIKey:    cfg.Story.APIKey,
			BaseURL:   cfg.Story.BaseURL,
			Model:     cfg.Story.Model,
			MaxTokens: cfg.Story.MaxTokens,
			Timeout:   cfg.Story.Timeout,
			WithImage: cfg.Story.WithImage,
		})
		if err != nil {
			db.Close()
			return nil, err
		}
		stories = c
	} else {
		logger.Info("story generation disabled", slog.String("reason", "story.api_key is empty"))
	}

	cos, err := mirror.New(ctx, mirror.Options{
		SecretID:  cfg.Mirror.SecretID,
		SecretKey: cfg.Mirror.SecretKey,
		Region:    cfg.Mirror.Region,
		Bucket:    cfg.Mirror.Bucket,
		Endpoint:  cfg.Mirror.Endpoint,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init mirror: %w", err)
	}
	if !cos.Enabled() {
		logger.Debug("object-store mirror disabled")
	}

	// A typed nil *notify.Client must not reach the publisher.
	var notifier publish.Notifier
	if cfg.Notify.Enabled() {
		notifier = notify.New(cfg.Notify.WebhookURL, cfg.Notify.RepoURL, cfg.Notify.MaxStoryBytes)
	}

	pub := publish.New(arch, cos, notifier, db, publish.Options{
		MirrorPrefix:  cfg.Paths.MirrorPrefix,
		MaxImageBytes: cfg.Notify.MaxImageBytes,
	}, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		version:   app.version,
		archive:   arch,
		ledger:    db,
		catalog:   cat,
		renderer:  renderer,
		publisher: pub,
		stories:   stories,
	}, nil
}

// Close releases the ledger.
func (a *App) Close() error {
	return a.ledger.Close()
}

func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func catalogSources(cfg *Config) []catalog.Source {
	enabled := cfg.EnabledSources()
	out := make([]catalog.Source, 0, len(enabled))
	for _, s := range enabled {
		out = append(out, catalog.Source{Name: s.Name, DisplayName: s.DisplayName, MaxItems: cfg.MaxItems(s)})
	}
	return out
}

func (a *App) recordRun(command, source, target string, created, failed int, started time.Time) {
	_, err := a.ledger.RecordRun(models.Run{
		Command:    command,
		Source:     source,
		Target:     target,
		Created:    created,
		Failed:     failed,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
	if err != nil {
		a.logger.Warn("record run failed", slog.String("command", command), slog.String("error", err.Error()))
	}
}
