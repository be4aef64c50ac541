// Package render regenerates the HTML gallery and the README index from a
// full scan of the archive.
package render

import (
	"errors"
	"log/slog"

	"github.com/starford/wallhub/internal/catalog"
)

// Options locates the documents and the link prefixes used in them.
type Options struct {
	GalleryPath   string
	ReadmePath    string
	GalleryPrefix string
	ReadmePrefix  string
	// ReadmeMaxItems caps the number of README rows.
	ReadmeMaxItems int
}

// Renderer rewrites both documents.
type Renderer struct {
	catalog *catalog.Catalog
	opts    Options
	logger  *slog.Logger
}

// New creates a Renderer.
func New(c *catalog.Catalog, opts Options, logger *slog.Logger) *Renderer {
	return &Renderer{catalog: c, opts: opts, logger: logger}
}

// Result reports which documents changed.
type Result struct {
	Gallery bool
	Readme  bool
}

// Regenerate scans the archive once and rewrites both documents. A failure
// on one document does not prevent the other from being written.
func (r *Renderer) Regenerate() (Result, error) {
	snap := r.catalog.Scan()
	var res Result
	var errs []error

	changed, err := spliceFile(r.opts.GalleryPath, galleryRe, Gallery(snap, r.opts.GalleryPrefix), "    ")
	if err != nil {
		r.logger.Error("render: gallery failed", slog.String("path", r.opts.GalleryPath), slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	res.Gallery = changed

	table := ReadmeTable(snap, r.opts.ReadmePrefix, r.opts.ReadmeMaxItems)
	if table == "" {
		r.logger.Warn("render: no wallpapers found, readme left unchanged")
	} else {
		changed, err := spliceFile(r.opts.ReadmePath, readmeRe, table, "")
		if err != nil {
			r.logger.Error("render: readme failed", slog.String("path", r.opts.ReadmePath), slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		res.Readme = changed
	}

	r.logger.Info("render: documents regenerated",
		slog.Bool("gallery_changed", res.Gallery),
		slog.Bool("readme_changed", res.Readme))
	return res, errors.Join(errs...)
}
