package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wallhub/internal/api"
	"github.com/starford/wallhub/internal/mcpserver"
	"github.com/starford/wallhub/internal/sse"
	"github.com/starford/wallhub/internal/watch"
)

// Serve runs the preview server until SIGINT/SIGTERM or ctx is cancelled.
// Archive changes on disk regenerate the documents and are streamed to
// clients as SSE events.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	docsDir := filepath.Dir(cfg.Paths.Gallery)
	svc := api.NewService(a.catalog, a.ledger, a.renderer, mediaPrefix(docsDir, cfg.Paths.Wallpapers))
	apiRouter := api.NewRouter(svc, cfg.API.Auth.AuthEnabled(), cfg.API.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(cfg.Paths.Wallpapers); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)
	r.Handle("/*", http.FileServer(http.Dir(docsDir)))

	httpServer := &http.Server{
		Addr:              cfg.API.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watch.Watch(gCtx, cfg.Paths.Wallpapers, 500*time.Millisecond, logger, func(changes []watch.Change) {
			for _, c := range changes {
				kind := sse.KindUpdated
				if c.Created {
					kind = sse.KindCreated
				}
				broker.PublishEntryEvent(kind, c.Key.Source, c.Key.Date)
			}
			if _, err := a.renderer.Regenerate(); err != nil {
				logger.Warn("serve: regenerate failed", slog.String("error", err.Error()))
			}
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server",
			slog.String("address", cfg.API.Address()),
			slog.String("docs", docsDir),
			slog.Bool("auth", cfg.API.Auth.AuthEnabled()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Unblocks the watcher when shutdown came from a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped")
	return nil
}

var errShutdown = errors.New("shutdown")

// ServeMCP serves the MCP tools on stdin/stdout until stdin closes.
func (a *App) ServeMCP(_ context.Context) error {
	a.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(a.catalog, a.version).ServeStdio()
}

// mediaPrefix is the URL path of the wallpapers root when it lives under
// the static docs directory, or "" otherwise.
func mediaPrefix(docsDir, wallpapers string) string {
	rel, err := filepath.Rel(docsDir, wallpapers)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/" + filepath.ToSlash(rel)
}
