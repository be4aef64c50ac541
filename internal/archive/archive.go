// Package archive stores wallpaper entries keyed by (source, date) on top of a
// storage.Provider.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"github.com/starford/wallhub/internal/apperr"
	"github.com/starford/wallhub/internal/models"
	"github.com/starford/wallhub/internal/storage"
)

// File names inside an entry directory.
const (
	ImageFile = "image.jpg"
	ThumbFile = "thumb.jpg"
	MetaFile  = "meta.json"
	StoryFile = "story.md"
)

// Key identifies one entry.
type Key struct {
	Source string
	Date   string
}

// Dir returns the entry directory relative to the wallpapers root.
func (k Key) Dir() string {
	return path.Join(k.Source, k.Date)
}

// File returns the relative path of name inside the entry directory.
func (k Key) File(name string) string {
	return path.Join(k.Source, k.Date, name)
}

func (k Key) String() string {
	return k.Source + "/" + k.Date
}

// Archive reads and writes entries.
type Archive struct {
	store storage.Provider
}

// New creates an Archive over store.
func New(store storage.Provider) *Archive {
	return &Archive{store: store}
}

// Store returns the underlying provider.
func (a *Archive) Store() storage.Provider {
	return a.store
}

// Present reports whether the entry's image and metadata both exist.
func (a *Archive) Present(k Key) bool {
	return a.store.Exists(k.File(ImageFile)) && a.store.Exists(k.File(MetaFile))
}

// Has reports whether the named file exists for k.
func (a *Archive) Has(k Key, name string) bool {
	return a.store.Exists(k.File(name))
}

// HasStory reports whether story.md exists for k.
func (a *Archive) HasStory(k Key) bool {
	return a.Has(k, StoryFile)
}

// WriteImage stores the original image. It never replaces an existing one.
func (a *Archive) WriteImage(k Key, data []byte) error {
	if a.store.Exists(k.File(ImageFile)) {
		return fmt.Errorf("archive: image %s: %w", k, apperr.ErrAlreadyExists)
	}
	return a.store.Write(k.File(ImageFile), data)
}

// ReadImage returns the original image bytes.
func (a *Archive) ReadImage(k Key) ([]byte, error) {
	return a.read(k, ImageFile)
}

// WriteThumb stores the thumbnail, replacing any previous one.
func (a *Archive) WriteThumb(k Key, data []byte) error {
	return a.store.Write(k.File(ThumbFile), data)
}

// ReadMeta decodes meta.json.
func (a *Archive) ReadMeta(k Key) (*models.Meta, error) {
	data, err := a.read(k, MetaFile)
	if err != nil {
		return nil, err
	}
	var m models.Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("archive: decode meta %s: %w", k, err)
	}
	return &m, nil
}

// WriteMeta validates and stores meta.json. HasStory is always synced with the
// presence of story.md, and Date with the key.
func (a *Archive) WriteMeta(k Key, m *models.Meta) error {
	m.Date = k.Date
	m.HasStory = a.HasStory(k)
	if err := m.Validate(); err != nil {
		return fmt.Errorf("archive: invalid meta %s: %w", k, err)
	}
	data, err := EncodeMeta(m)
	if err != nil {
		return err
	}
	return a.store.Write(k.File(MetaFile), data)
}

// ReadStory returns story.md.
func (a *Archive) ReadStory(k Key) (string, error) {
	data, err := a.read(k, StoryFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteStory stores story.md.
func (a *Archive) WriteStory(k Key, text string) error {
	return a.store.Write(k.File(StoryFile), []byte(text))
}

// Sources lists the source directories under the root.
func (a *Archive) Sources() ([]string, error) {
	return a.store.ListDirs("")
}

// Dates lists the date directories of source, newest first.
func (a *Archive) Dates(source string) ([]string, error) {
	dirs, err := a.store.ListDirs(source)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}

// LocalPath resolves the named entry file to an absolute path.
func (a *Archive) LocalPath(k Key, name string) (string, error) {
	return a.store.Abs(k.File(name))
}

func (a *Archive) read(k Key, name string) ([]byte, error) {
	p := k.File(name)
	if !a.store.Exists(p) {
		return nil, fmt.Errorf("archive: %s: %w", p, apperr.ErrNotFound)
	}
	return a.store.Read(p)
}

// EncodeMeta renders m as two-space indented JSON with non-ASCII text kept
// verbatim.
func EncodeMeta(m *models.Meta) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("archive: encode meta: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
