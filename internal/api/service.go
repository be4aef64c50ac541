package api

import (
	"context"
	"path"

	"github.com/starford/wallhub/internal/catalog"
	"github.com/starford/wallhub/internal/ledger"
	"github.com/starford/wallhub/internal/models"
	"github.com/starford/wallhub/internal/render"
)

// Regenerator rewrites the index documents.
type Regenerator interface {
	Regenerate() (render.Result, error)
}

// Service joins the catalog, the run ledger and the renderer for the API.
type Service struct {
	catalog     *catalog.Catalog
	runs        ledger.Ledger
	docs        Regenerator
	mediaPrefix string
}

// NewService creates a Service. mediaPrefix is the URL path under which the
// static handler serves the wallpapers root; empty disables media links.
func NewService(c *catalog.Catalog, runs ledger.Ledger, docs Regenerator, mediaPrefix string) *Service {
	return &Service{catalog: c, runs: runs, docs: docs, mediaPrefix: mediaPrefix}
}

// Sources returns the enabled sources in display order.
func (s *Service) Sources() []catalog.Source {
	return s.catalog.Sources()
}

// ListWallpapers returns up to limit entries, newest first.
func (s *Service) ListWallpapers(_ context.Context, source string, limit int) ([]WallpaperItem, error) {
	items, err := s.catalog.Recent(source, limit)
	if err != nil {
		return nil, err
	}
	out := make([]WallpaperItem, 0, len(items))
	for _, it := range items {
		out = append(out, s.toItem(it))
	}
	return out, nil
}

// GetWallpaper returns a single entry.
func (s *Service) GetWallpaper(_ context.Context, source, date string) (*WallpaperItem, error) {
	it, err := s.catalog.Get(source, date)
	if err != nil {
		return nil, err
	}
	item := s.toItem(it)
	return &item, nil
}

// Story returns the story text of an entry.
func (s *Service) Story(_ context.Context, source, date string) (string, error) {
	return s.catalog.Story(source, date)
}

// Runs returns recent command runs.
func (s *Service) Runs(_ context.Context, limit int) ([]models.Run, error) {
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []models.Run{}
	}
	return runs, nil
}

// Regenerate rewrites the gallery and the README.
func (s *Service) Regenerate(_ context.Context) (render.Result, error) {
	return s.docs.Regenerate()
}

func (s *Service) toItem(it catalog.Item) WallpaperItem {
	item := WallpaperItem{
		Source:       it.Source,
		Date:         it.Date,
		DisplayName:  it.DisplayName,
		Title:        it.Meta.Title,
		Copyright:    it.Meta.Copyright,
		Photographer: it.Meta.Photographer,
		ImageURL:     it.Meta.ImageURL,
		HasStory:     it.HasStory,
	}
	if s.mediaPrefix != "" {
		base := path.Join(s.mediaPrefix, it.Key.Dir())
		if it.HasImage {
			item.Image = base + "/image.jpg"
		}
		if it.HasThumb {
			item.Thumb = base + "/thumb.jpg"
		}
	}
	return item
}
