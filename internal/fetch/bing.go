package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/models"
)

// BingOptions configures the daily-image API.
type BingOptions struct {
	APIURL   string
	BaseURL  string
	Market   string
	Offsets  []int
	PageSize int
}

// Bing fetches the daily image archive. Only the most recent few weeks are
// reachable through the configured offsets.
type Bing struct {
	source string
	opts   BingOptions
	deps   *Deps
}

// NewBing creates a Bing fetcher that stores entries under source.
func NewBing(source string, opts BingOptions, deps *Deps) *Bing {
	return &Bing{source: source, opts: opts, deps: deps}
}

// Source returns the source name entries are stored under.
func (b *Bing) Source() string { return b.source }

type bingImage struct {
	date      string
	path      string
	title     string
	copyright string
}

// Fetch downloads every image in t that is not on disk yet and refreshes the
// metadata of all matching dates.
func (b *Bing) Fetch(ctx context.Context, t Target) (*Report, error) {
	report := &Report{Source: b.source, Target: t.String()}

	for _, img := range b.list(ctx, t) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		k := archive.Key{Source: b.source, Date: img.date}
		imageURL := b.opts.BaseURL + img.path
		meta := &models.Meta{Title: img.title, Copyright: img.copyright, ImageURL: imageURL}

		status := StatusRefreshed
		if !b.deps.Archive.Has(k, archive.ImageFile) {
			b.deps.Logger.Info("fetch: downloading", slog.String("entry", k.String()), slog.String("title", img.title))
			data, err := b.deps.storeImage(ctx, k, imageURL)
			if err != nil {
				b.deps.fail(report, k, err)
				continue
			}
			status = StatusCreated
			b.deps.tellStory(ctx, k, meta, data)
		} else if err := b.deps.ensureThumb(k); err != nil {
			b.deps.fail(report, k, err)
			continue
		}

		if err := b.deps.Archive.WriteMeta(k, meta); err != nil {
			b.deps.fail(report, k, err)
			continue
		}
		report.add(k.Date, status, nil)
	}

	b.deps.Logger.Info("fetch: bing done",
		slog.String("target", t.String()),
		slog.Int("created", report.Created()),
		slog.Int("failed", report.Failed()))
	return report, nil
}

// list queries every offset and returns the images inside t, one per date.
// Offsets that fail are logged and left out.
func (b *Bing) list(ctx context.Context, t Target) []bingImage {
	var out []bingImage
	seen := make(map[string]bool)
	for _, off := range b.opts.Offsets {
		q := url.Values{}
		q.Set("format", "js")
		q.Set("idx", strconv.Itoa(off))
		q.Set("n", strconv.Itoa(b.opts.PageSize))
		q.Set("mkt", b.opts.Market)

		doc, err := b.deps.Client.GetJSON(ctx, b.opts.APIURL+"?"+q.Encode(), nil)
		if err != nil {
			b.deps.Logger.Warn("fetch: bing offset failed", slog.Int("idx", off), slog.String("error", err.Error()))
			continue
		}
		doc.Get("images").ForEach(func(_, v gjson.Result) bool {
			date, ok := bingDate(v.Get("startdate").String())
			if !ok || !t.Matches(date) || seen[date] {
				return true
			}
			path := v.Get("url").String()
			if path == "" {
				return true
			}
			seen[date] = true
			out = append(out, bingImage{
				date:      date,
				path:      path,
				title:     v.Get("title").String(),
				copyright: v.Get("copyright").String(),
			})
			return true
		})
	}
	return out
}

func bingDate(startdate string) (string, bool) {
	d, err := time.Parse("20060102", startdate)
	if err != nil {
		return "", false
	}
	return d.Format(models.DateLayout), true
}
