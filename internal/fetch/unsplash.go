package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/starford/wallhub/internal/apperr"
	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/models"
)

const defaultUnsplashTitle = "Unsplash Featured Photo"

// UnsplashOptions configures the random-photo API.
type UnsplashOptions struct {
	APIURL      string
	AccessKey   string
	Query       string
	Orientation string
	Featured    bool
}

// Unsplash assigns one random photo to every missing date of a target. The
// API is not date addressed, so the photo for a date depends on when it was
// first fetched.
type Unsplash struct {
	source string
	opts   UnsplashOptions
	deps   *Deps
}

// NewUnsplash creates an Unsplash fetcher. It fails with a config-missing
// error when no access key is set.
func NewUnsplash(source string, opts UnsplashOptions, deps *Deps) (*Unsplash, error) {
	if opts.AccessKey == "" {
		return nil, apperr.ConfigMissing("fetch: unsplash", "unsplash.access_key")
	}
	return &Unsplash{source: source, opts: opts, deps: deps}, nil
}

// Source returns the source name entries are stored under.
func (u *Unsplash) Source() string { return u.source }

// Fetch fills every date of t that is not present yet.
func (u *Unsplash) Fetch(ctx context.Context, t Target) (*Report, error) {
	report := &Report{Source: u.source, Target: t.String()}
	header := http.Header{}
	header.Set("Authorization", "Client-ID "+u.opts.AccessKey)
	header.Set("Accept-Version", "v1")

	for _, date := range t.Dates() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		k := archive.Key{Source: u.source, Date: date}
		if u.deps.Archive.Present(k) {
			if err := u.deps.ensureThumb(k); err != nil {
				u.deps.fail(report, k, err)
				continue
			}
			report.add(date, StatusSkipped, nil)
			continue
		}
		if u.deps.Archive.Has(k, archive.ImageFile) {
			u.deps.fail(report, k, fmt.Errorf("fetch: %s: image without metadata: %w", k, apperr.ErrAlreadyExists))
			continue
		}
		if err := u.fetchOne(ctx, k, header); err != nil {
			u.deps.fail(report, k, err)
			continue
		}
		report.add(date, StatusCreated, nil)
	}

	u.deps.Logger.Info("fetch: unsplash done",
		slog.String("target", t.String()),
		slog.Int("created", report.Created()),
		slog.Int("failed", report.Failed()))
	return report, nil
}

func (u *Unsplash) fetchOne(ctx context.Context, k archive.Key, header http.Header) error {
	doc, err := u.deps.Client.GetJSON(ctx, u.requestURL(), header)
	if err != nil {
		return apperr.Skip("fetch: unsplash", err)
	}
	full := doc.Get("urls.full").String()
	if full == "" {
		return apperr.Skip("fetch: unsplash", errors.New("response has no urls.full"))
	}

	title := doc.Get("description").String()
	if title == "" {
		title = doc.Get("alt_description").String()
	}
	if title == "" {
		title = defaultUnsplashTitle
	}
	author := doc.Get("user.name").String()
	if author == "" {
		author = "Unknown"
	}
	meta := &models.Meta{
		Title:        title,
		Copyright:    fmt.Sprintf("Photo by %s on Unsplash", author),
		ImageURL:     doc.Get("links.html").String(),
		Photographer: author,
	}
	if meta.ImageURL == "" {
		meta.ImageURL = full
	}

	u.deps.Logger.Info("fetch: downloading", slog.String("entry", k.String()), slog.String("title", title))
	data, err := u.deps.storeImage(ctx, k, full)
	if err != nil {
		return err
	}
	u.deps.tellStory(ctx, k, meta, data)
	return u.deps.Archive.WriteMeta(k, meta)
}

func (u *Unsplash) requestURL() string {
	q := url.Values{}
	if u.opts.Featured {
		q.Set("featured", "true")
	}
	if u.opts.Orientation != "" {
		q.Set("orientation", u.opts.Orientation)
	}
	if u.opts.Query != "" {
		q.Set("query", u.opts.Query)
	}
	if len(q) == 0 {
		return u.opts.APIURL
	}
	return u.opts.APIURL + "?" + q.Encode()
}
