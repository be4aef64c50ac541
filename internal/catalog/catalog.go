// Package catalog scans the archive of the enabled sources. It is shared by
// the document renderers, the preview API and the MCP server.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/starford/wallhub/internal/apperr"
	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/models"
)

// Source is an enabled source in display order.
type Source struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	MaxItems    int    `json:"max_items"`
}

// Item is one entry with readable metadata.
type Item struct {
	archive.Key
	DisplayName string
	Meta        models.Meta
	HasImage    bool
	HasThumb    bool
	HasStory    bool
}

// Snapshot is the result of one full scan.
type Snapshot struct {
	Sources []Source
	// Entries maps a source name to its items, newest first.
	Entries map[string][]Item
}

// Catalog reads entries of the configured sources.
type Catalog struct {
	archive *archive.Archive
	sources []Source
	logger  *slog.Logger
}

// New creates a Catalog over the given enabled sources.
func New(a *archive.Archive, sources []Source, logger *slog.Logger) *Catalog {
	return &Catalog{archive: a, sources: sources, logger: logger}
}

// Sources returns the enabled sources in display order.
func (c *Catalog) Sources() []Source {
	return c.sources
}

// Source looks up an enabled source by name.
func (c *Catalog) Source(name string) (Source, bool) {
	for _, s := range c.sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// Scan reads every entry of every enabled source.
func (c *Catalog) Scan() Snapshot {
	snap := Snapshot{Sources: c.sources, Entries: make(map[string][]Item, len(c.sources))}
	for _, s := range c.sources {
		snap.Entries[s.Name] = c.entries(s)
	}
	return snap
}

// Recent returns up to limit entries, newest first. An empty source means
// all enabled sources; entries sharing a date keep display order.
func (c *Catalog) Recent(source string, limit int) ([]Item, error) {
	sources := c.sources
	if source != "" {
		s, ok := c.Source(source)
		if !ok {
			return nil, fmt.Errorf("catalog: source %q: %w", source, apperr.ErrNotFound)
		}
		sources = []Source{s}
	}
	var out []Item
	for _, s := range sources {
		out = append(out, c.entries(s)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns a single entry of an enabled source.
func (c *Catalog) Get(source, date string) (Item, error) {
	s, ok := c.Source(source)
	if !ok {
		return Item{}, fmt.Errorf("catalog: source %q: %w", source, apperr.ErrNotFound)
	}
	it, err := c.item(s, date)
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

// Story returns the story text of an entry.
func (c *Catalog) Story(source, date string) (string, error) {
	if _, ok := c.Source(source); !ok {
		return "", fmt.Errorf("catalog: source %q: %w", source, apperr.ErrNotFound)
	}
	return c.archive.ReadStory(archive.Key{Source: source, Date: date})
}

func (c *Catalog) entries(s Source) []Item {
	dates, err := c.archive.Dates(s.Name)
	if err != nil {
		c.logger.Warn("catalog: list dates failed", slog.String("source", s.Name), slog.String("error", err.Error()))
		return nil
	}
	var out []Item
	for _, d := range dates {
		it, err := c.item(s, d)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				c.logger.Warn("catalog: entry skipped", slog.String("entry", s.Name+"/"+d), slog.String("error", err.Error()))
			}
			continue
		}
		out = append(out, it)
	}
	return out
}

func (c *Catalog) item(s Source, date string) (Item, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return Item{}, fmt.Errorf("catalog: date %q: %w", date, apperr.ErrNotFound)
	}
	k := archive.Key{Source: s.Name, Date: date}
	m, err := c.archive.ReadMeta(k)
	if err != nil {
		return Item{}, err
	}
	return Item{
		Key:         k,
		DisplayName: s.DisplayName,
		Meta:        *m,
		HasImage:    c.archive.Has(k, archive.ImageFile),
		HasThumb:    c.archive.Has(k, archive.ThumbFile),
		HasStory:    c.archive.HasStory(k),
	}, nil
}
