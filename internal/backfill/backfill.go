// Package backfill writes stories for entries that were fetched without one.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/story"
)

// Mirror uploads entry files after they change.
type Mirror interface {
	Mirror(ctx context.Context, k archive.Key, names ...string) error
}

// RegenerateFunc rewrites the index documents.
type RegenerateFunc func(ctx context.Context) error

// Result counts the entries a run touched.
type Result struct {
	Written    int
	Failed     int
	Incomplete int
}

// Backfiller scans every source directory, including sources that are not
// enabled, for entries without story.md.
type Backfiller struct {
	archive *archive.Archive
	stories story.Generator
	mirror  Mirror
	docs    RegenerateFunc
	logger  *slog.Logger
}

// New creates a Backfiller. mirror and docs may be nil.
func New(a *archive.Archive, g story.Generator, m Mirror, docs RegenerateFunc, logger *slog.Logger) *Backfiller {
	return &Backfiller{archive: a, stories: g, mirror: m, docs: docs, logger: logger}
}

// Run generates the missing stories, newest first within each source. The
// documents are regenerated when at least one story was written.
func (b *Backfiller) Run(ctx context.Context) (Result, error) {
	var res Result
	sources, err := b.archive.Sources()
	if err != nil {
		return res, fmt.Errorf("backfill: list sources: %w", err)
	}

	for _, source := range sources {
		dates, err := b.archive.Dates(source)
		if err != nil {
			b.logger.Warn("backfill: list dates failed", slog.String("source", source), slog.String("error", err.Error()))
			continue
		}
		for _, date := range dates {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			k := archive.Key{Source: source, Date: date}
			if b.archive.HasStory(k) {
				continue
			}
			if !b.archive.Present(k) {
				b.logger.Warn("backfill: missing meta or image, skipped", slog.String("entry", k.String()))
				res.Incomplete++
				continue
			}
			if err := b.fill(ctx, k); err != nil {
				b.logger.Error("backfill: entry failed", slog.String("entry", k.String()), slog.String("error", err.Error()))
				res.Failed++
				continue
			}
			res.Written++
		}
	}

	b.logger.Info("backfill: done",
		slog.Int("written", res.Written),
		slog.Int("failed", res.Failed),
		slog.Int("incomplete", res.Incomplete))

	if res.Written > 0 && b.docs != nil {
		if err := b.docs(ctx); err != nil {
			return res, fmt.Errorf("backfill: regenerate: %w", err)
		}
	}
	return res, nil
}

func (b *Backfiller) fill(ctx context.Context, k archive.Key) error {
	m, err := b.archive.ReadMeta(k)
	if err != nil {
		return err
	}
	// story.md must not land next to a meta.json that cannot be rewritten.
	m.Date = k.Date
	if err := m.Validate(); err != nil {
		return fmt.Errorf("backfill: invalid meta %s: %w", k, err)
	}
	img, err := b.archive.ReadImage(k)
	if err != nil {
		return err
	}
	text, err := b.stories.Generate(ctx, story.Request{Title: m.Title, Copyright: m.Copyright, Image: img})
	if err != nil {
		return err
	}
	if err := b.archive.WriteStory(k, text); err != nil {
		return err
	}
	if err := b.archive.WriteMeta(k, m); err != nil {
		return err
	}
	b.logger.Info("backfill: story written", slog.String("entry", k.String()))

	if b.mirror != nil {
		if err := b.mirror.Mirror(ctx, k, archive.StoryFile, archive.MetaFile); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Warn("backfill: mirror failed", slog.String("entry", k.String()), slog.String("error", err.Error()))
		}
	}
	return nil
}
