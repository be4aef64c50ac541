// Package fetch populates the archive from upstream photo APIs.
package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/models"
	"github.com/starford/wallhub/internal/story"
)

// Fetcher downloads the entries of one source for a target.
type Fetcher interface {
	Source() string
	Fetch(ctx context.Context, t Target) (*Report, error)
}

// Thumbnailer derives a thumbnail from image bytes.
type Thumbnailer interface {
	Generate(src []byte) ([]byte, error)
}

// Deps are the collaborators shared by all fetchers.
type Deps struct {
	Archive *archive.Archive
	Client  *Client
	Thumbs  Thumbnailer
	// Stories may be nil, in which case no stories are requested.
	Stories story.Generator
	Logger  *slog.Logger
}

// storeImage downloads url and writes the image and its thumbnail. Nothing is
// written when the download or the resize fails.
func (d *Deps) storeImage(ctx context.Context, k archive.Key, url string) ([]byte, error) {
	data, err := d.Client.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	thumb, err := d.Thumbs.Generate(data)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s: %w", k, err)
	}
	if err := d.Archive.WriteImage(k, data); err != nil {
		return nil, err
	}
	if err := d.Archive.WriteThumb(k, thumb); err != nil {
		return nil, err
	}
	return data, nil
}

// ensureThumb derives thumb.jpg from the stored image when it is missing.
func (d *Deps) ensureThumb(k archive.Key) error {
	if d.Archive.Has(k, archive.ThumbFile) {
		return nil
	}
	data, err := d.Archive.ReadImage(k)
	if err != nil {
		return err
	}
	thumb, err := d.Thumbs.Generate(data)
	if err != nil {
		return fmt.Errorf("fetch: %s: %w", k, err)
	}
	if err := d.Archive.WriteThumb(k, thumb); err != nil {
		return err
	}
	d.Logger.Info("fetch: thumbnail restored", slog.String("entry", k.String()))
	return nil
}

// tellStory asks for a story and stores it. Failures are logged; the entry is
// kept without one.
func (d *Deps) tellStory(ctx context.Context, k archive.Key, m *models.Meta, image []byte) {
	if d.Stories == nil || d.Archive.HasStory(k) {
		return
	}
	text, err := d.Stories.Generate(ctx, story.Request{Title: m.Title, Copyright: m.Copyright, Image: image})
	if err != nil {
		d.Logger.Warn("fetch: story failed", slog.String("entry", k.String()), slog.String("error", err.Error()))
		return
	}
	if err := d.Archive.WriteStory(k, text); err != nil {
		d.Logger.Warn("fetch: write story failed", slog.String("entry", k.String()), slog.String("error", err.Error()))
		return
	}
	d.Logger.Info("fetch: story written", slog.String("entry", k.String()))
}

func (d *Deps) fail(r *Report, k archive.Key, err error) {
	d.Logger.Error("fetch: entry failed", slog.String("entry", k.String()), slog.String("error", err.Error()))
	r.add(k.Date, StatusFailed, err)
}
