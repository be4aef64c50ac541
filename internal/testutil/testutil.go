// Package testutil provides shared test helpers for setting up archives and ledgers.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/ledger"
	"github.com/starford/wallhub/internal/models"
	"github.com/starford/wallhub/internal/storage"
)

// TestLedger creates a temporary SQLite ledger that is automatically cleaned up.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "wallhub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := ledger.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestArchive creates a temporary wallpapers root with an archive over it.
func TestArchive(t *testing.T) (string, *archive.Archive) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, archive.New(store)
}

// JPEG returns a small solid-colour JPEG.
func JPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 40, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// EntryOptions selects which files WriteEntry creates.
type EntryOptions struct {
	NoImage bool
	NoThumb bool
	NoMeta  bool
	Story   string
}

// WriteEntry materialises an entry with the given title.
func WriteEntry(t *testing.T, a *archive.Archive, k archive.Key, title string, opts EntryOptions) {
	t.Helper()
	img := JPEG(t, 8, 4)
	if !opts.NoImage {
		if err := a.WriteImage(k, img); err != nil {
			t.Fatal(err)
		}
	}
	if !opts.NoThumb {
		if err := a.WriteThumb(k, img); err != nil {
			t.Fatal(err)
		}
	}
	if opts.Story != "" {
		if err := a.WriteStory(k, opts.Story); err != nil {
			t.Fatal(err)
		}
	}
	if !opts.NoMeta {
		m := &models.Meta{
			Title:     title,
			Copyright: "© " + title,
			ImageURL:  "https://example.com/" + k.String(),
		}
		if err := a.WriteMeta(k, m); err != nil {
			t.Fatal(err)
		}
	}
}
