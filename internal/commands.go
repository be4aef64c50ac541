package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/wallhub/internal/apperr"
	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/backfill"
	"github.com/starford/wallhub/internal/fetch"
	"github.com/starford/wallhub/internal/models"
	"github.com/starford/wallhub/internal/publish"
	"github.com/starford/wallhub/internal/thumbnail"
)

// Fetch populates the archive for one source and target, mirrors the new
// entries, optionally announces them, and then regenerates both documents.
// Per-date failures are logged and do not fail the command.
func (a *App) Fetch(ctx context.Context, sourceName, rawTarget string, announce bool) error {
	src, ok := a.cfg.Source(sourceName)
	if !ok {
		return fmt.Errorf("%w: unsupported source %q", ErrUsage, sourceName)
	}
	target, err := fetch.ParseTarget(rawTarget)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	f, err := a.fetcher(src)
	if err != nil {
		return err
	}

	started := time.Now()
	a.logger.Info("fetch: start", slog.String("source", src.Name), slog.String("target", target.String()))
	rep, err := f.Fetch(ctx, target)
	if err != nil {
		return fmt.Errorf("fetch %s %s: %w", src.Name, target, err)
	}
	a.logger.Info("fetch: done",
		slog.String("source", src.Name),
		slog.String("target", target.String()),
		slog.Int("created", rep.Created()),
		slog.Int("refreshed", rep.Count(fetch.StatusRefreshed)),
		slog.Int("skipped", rep.Count(fetch.StatusSkipped)),
		slog.Int("failed", rep.Failed()))

	notifyOn := announce
	for _, date := range rep.CreatedDates() {
		k := archive.Key{Source: src.Name, Date: date}
		if err := a.publisher.Mirror(ctx, k, archive.ImageFile, archive.ThumbFile, archive.MetaFile, archive.StoryFile); err != nil {
			a.logger.Warn("mirror failed", slog.String("entry", k.String()), slog.String("error", err.Error()))
		}
		if !notifyOn {
			continue
		}
		if err := a.publisher.Announce(ctx, k, src.DisplayName); err != nil {
			if errors.Is(err, publish.ErrNotifyDisabled) {
				a.logger.Warn("notify requested but notify.webhook_url is empty")
				notifyOn = false
				continue
			}
			a.logger.Error("notify failed", slog.String("entry", k.String()), slog.String("error", err.Error()))
		}
	}

	a.recordRun("fetch", src.Name, target.String(), rep.Created(), rep.Failed(), started)
	return a.RegenerateIndexes(ctx)
}

func (a *App) fetcher(src SourceConfig) (fetch.Fetcher, error) {
	deps := &fetch.Deps{
		Archive: a.archive,
		Client:  fetch.NewClient(a.cfg.HTTP.Timeout, a.cfg.HTTP.DownloadTimeout, a.cfg.HTTP.UserAgent),
		Thumbs:  thumbnail.New(a.cfg.Thumbnail.Width, a.cfg.Thumbnail.Quality),
		Stories: a.stories,
		Logger:  a.logger,
	}

	switch src.Kind {
	case SourceKindBing:
		return fetch.NewBing(src.Name, fetch.BingOptions{
			APIURL:   a.cfg.Bing.APIURL,
			BaseURL:  a.cfg.Bing.BaseURL,
			Market:   a.cfg.Bing.Market,
			Offsets:  a.cfg.Bing.Offsets,
			PageSize: a.cfg.Bing.PageSize,
		}, deps), nil
	case SourceKindUnsplash:
		return fetch.NewUnsplash(src.Name, fetch.UnsplashOptions{
			APIURL:      a.cfg.Unsplash.APIURL,
			AccessKey:   a.cfg.Unsplash.AccessKey,
			Query:       a.cfg.Unsplash.Query,
			Orientation: a.cfg.Unsplash.Orientation,
			Featured:    a.cfg.Unsplash.Featured,
		}, deps)
	}
	return nil, fmt.Errorf("%w: source %q has unknown kind %q", ErrUsage, src.Name, src.Kind)
}

// Backfill writes the missing stories of every archived entry.
func (a *App) Backfill(ctx context.Context) error {
	if a.stories == nil {
		return apperr.ConfigMissing("backfill", "story.api_key")
	}
	started := time.Now()
	b := backfill.New(a.archive, a.stories, a.publisher, a.RegenerateIndexes, a.logger)
	res, err := b.Run(ctx)
	a.recordRun("backfill", "", "", res.Written, res.Failed, started)
	return err
}

// RegenerateIndexes rewrites the gallery and the README from a fresh scan.
func (a *App) RegenerateIndexes(_ context.Context) error {
	_, err := a.renderer.Regenerate()
	return err
}

// Notify pushes the image, announcement and story of one entry. Messages
// already sent are skipped.
func (a *App) Notify(ctx context.Context, sourceName, date string) error {
	src, ok := a.cfg.Source(sourceName)
	if !ok {
		return fmt.Errorf("%w: unsupported source %q", ErrUsage, sourceName)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD: %q", ErrUsage, date)
	}
	k := archive.Key{Source: src.Name, Date: date}
	if !a.archive.Present(k) {
		return fmt.Errorf("notify %s: %w", k, apperr.ErrNotFound)
	}

	started := time.Now()
	err := a.publisher.Announce(ctx, k, src.DisplayName)
	if errors.Is(err, publish.ErrNotifyDisabled) {
		return apperr.ConfigMissing("notify", "notify.webhook_url")
	}
	failed := 0
	if err != nil {
		failed = 1
	}
	a.recordRun("notify", src.Name, date, 0, failed, started)
	return err
}
