package render

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/wallhub/internal/apperr"
	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/catalog"
	"github.com/starford/wallhub/internal/testutil"
)

const galleryDoc = `<!DOCTYPE html>
<html>
<body>
    <h1>Daily Wallpapers</h1>
    <div class="gallery">
        <p>placeholder</p>
    </div>
</body>
</html>
`

const readmeDoc = `# Wallpapers

Intro text.

<!-- WALLPAPER_INDEX_START -->
old table
<!-- WALLPAPER_INDEX_END -->

Footer text.
`

type fixture struct {
	archive  *archive.Archive
	renderer *Renderer
	gallery  string
	readme   string
}

func newFixture(t *testing.T, galleryContent, readmeContent string) *fixture {
	t.Helper()
	_, a := testutil.TestArchive(t)
	docs := t.TempDir()
	f := &fixture{
		archive: a,
		gallery: filepath.Join(docs, "index.html"),
		readme:  filepath.Join(docs, "README.md"),
	}
	if err := os.WriteFile(f.gallery, []byte(galleryContent), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.readme, []byte(readmeContent), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := catalog.New(a, []catalog.Source{
		{Name: "bing", DisplayName: "Bing", MaxItems: 10},
		{Name: "unsplash", DisplayName: "Unsplash", MaxItems: 10},
	}, logger)
	f.renderer = New(c, Options{
		GalleryPath:    f.gallery,
		ReadmePath:     f.readme,
		GalleryPrefix:  "./wallpapers",
		ReadmePrefix:   "docs/wallpapers",
		ReadmeMaxItems: 10,
	}, logger)
	return f
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRegenerate_Idempotent(t *testing.T) {
	f := newFixture(t, galleryDoc, readmeDoc)
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "bing", Date: "2025-12-10"}, "Lake", testutil.EntryOptions{Story: "# s"})
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "unsplash", Date: "2025-12-09"}, "Hill", testutil.EntryOptions{})

	if _, err := f.renderer.Regenerate(); err != nil {
		t.Fatalf("first Regenerate: %v", err)
	}
	g1, r1 := read(t, f.gallery), read(t, f.readme)

	res, err := f.renderer.Regenerate()
	if err != nil {
		t.Fatalf("second Regenerate: %v", err)
	}
	if res.Gallery || res.Readme {
		t.Errorf("second run reported changes: %+v", res)
	}
	if g2 := read(t, f.gallery); g2 != g1 {
		t.Errorf("gallery changed on second run:\n%s\n---\n%s", g1, g2)
	}
	if r2 := read(t, f.readme); r2 != r1 {
		t.Errorf("readme changed on second run:\n%s\n---\n%s", r1, r2)
	}
}

func TestRegenerate_PreservesOutsideMarkers(t *testing.T) {
	f := newFixture(t, galleryDoc, readmeDoc)
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "bing", Date: "2025-12-10"}, "Lake", testutil.EntryOptions{})

	if _, err := f.renderer.Regenerate(); err != nil {
		t.Fatal(err)
	}
	readme := read(t, f.readme)
	if !strings.HasPrefix(readme, "# Wallpapers\n\nIntro text.\n\n<!-- WALLPAPER_INDEX_START -->\n<table") {
		t.Errorf("readme prefix changed:\n%s", readme)
	}
	if !strings.HasSuffix(readme, "</table>\n<!-- WALLPAPER_INDEX_END -->\n\nFooter text.\n") {
		t.Errorf("readme suffix changed:\n%s", readme)
	}
	if strings.Contains(readme, "old table") {
		t.Error("old table kept")
	}

	gallery := read(t, f.gallery)
	if !strings.Contains(gallery, "<h1>Daily Wallpapers</h1>") || strings.Contains(gallery, "placeholder") {
		t.Errorf("gallery =\n%s", gallery)
	}
	if !strings.HasSuffix(gallery, "        </div>\n    </div>\n</body>\n</html>\n") {
		t.Errorf("gallery tail =\n%s", gallery)
	}
}

func TestRegenerate_StoryLink(t *testing.T) {
	f := newFixture(t, galleryDoc, readmeDoc)
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "bing", Date: "2025-12-10"}, "With", testutil.EntryOptions{Story: "# s"})
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "bing", Date: "2025-12-09"}, "Without", testutil.EntryOptions{})

	if _, err := f.renderer.Regenerate(); err != nil {
		t.Fatal(err)
	}
	gallery := read(t, f.gallery)
	if !strings.Contains(gallery, `<a href="./wallpapers/bing/2025-12-10/story.md" class="story-link"><span class="title">With 📖</span></a>`) {
		t.Errorf("story link missing:\n%s", gallery)
	}
	if !strings.Contains(gallery, `<span class="title">Without</span>`) || strings.Contains(gallery, "2025-12-09/story.md") {
		t.Errorf("entry without story rendered a link:\n%s", gallery)
	}
	readme := read(t, f.readme)
	if !strings.Contains(readme, `<a href="docs/wallpapers/bing/2025-12-10/story.md"><small>With 📖</small></a>`) {
		t.Errorf("readme story link missing:\n%s", readme)
	}
	if strings.Contains(readme, "2025-12-09/story.md") {
		t.Error("readme links a missing story")
	}
}

func TestRegenerate_MissingMarkers(t *testing.T) {
	noMarkers := "# Readme without markers\n"
	f := newFixture(t, "<html><body></body></html>\n", noMarkers)
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "bing", Date: "2025-12-10"}, "Lake", testutil.EntryOptions{})

	_, err := f.renderer.Regenerate()
	if !errors.Is(err, apperr.ErrMarkersNotFound) {
		t.Fatalf("err = %v, want ErrMarkersNotFound", err)
	}
	if got := read(t, f.readme); got != noMarkers {
		t.Errorf("readme modified: %q", got)
	}
	if got := read(t, f.gallery); got != "<html><body></body></html>\n" {
		t.Errorf("gallery modified: %q", got)
	}
}

func TestReadmeTable_Layout(t *testing.T) {
	f := newFixture(t, galleryDoc, readmeDoc)
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "bing", Date: "2025-12-10"}, "B", testutil.EntryOptions{})
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "unsplash", Date: "2025-12-09"}, "<U&>", testutil.EntryOptions{})
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "unsplash", Date: "2025-12-08"}, "nothumb", testutil.EntryOptions{NoThumb: true})

	snap := f.renderer.catalog.Scan()
	table := ReadmeTable(snap, "docs/wallpapers", 10)
	lines := strings.Split(table, "\n")
	if lines[1] != `<tr><th width="15%">Date</th><th width="42%">Bing</th><th width="42%">Unsplash</th></tr>` {
		t.Errorf("header = %s", lines[1])
	}
	if !strings.Contains(table, "&lt;U&amp;&gt;") {
		t.Error("title not escaped")
	}
	if strings.Contains(table, "2025-12-08") {
		t.Error("entry without thumbnail listed")
	}
	if strings.Index(table, "2025-12-10") > strings.Index(table, "2025-12-09") {
		t.Error("rows not newest first")
	}
	if strings.Count(table, `<small>-</small>`) != 2 {
		t.Errorf("expected two empty cells:\n%s", table)
	}

	capped := ReadmeTable(snap, "docs/wallpapers", 1)
	if strings.Contains(capped, "2025-12-09") {
		t.Error("row cap ignored")
	}
}

func TestGallery_PerSourceCap(t *testing.T) {
	f := newFixture(t, galleryDoc, readmeDoc)
	for _, d := range []string{"2025-12-08", "2025-12-09", "2025-12-10"} {
		testutil.WriteEntry(t, f.archive, archive.Key{Source: "bing", Date: d}, d, testutil.EntryOptions{})
	}
	testutil.WriteEntry(t, f.archive, archive.Key{Source: "unsplash", Date: "2025-12-10"}, "u", testutil.EntryOptions{})

	snap := f.renderer.catalog.Scan()
	snap.Sources[0].MaxItems = 2
	out := Gallery(snap, "./wallpapers")
	if strings.Contains(out, "2025-12-08") {
		t.Error("per-source cap ignored")
	}
	if strings.Count(out, `<div class="card">`) != 3 {
		t.Errorf("cards:\n%s", out)
	}
	if strings.Index(out, "2025-12-10 · Bing") > strings.Index(out, "2025-12-10 · Unsplash") {
		t.Error("same-date cards not in display order")
	}
}

func TestSplice_NoMarkers(t *testing.T) {
	if _, err := Splice("nothing here", readmeRe, "x", ""); !errors.Is(err, apperr.ErrMarkersNotFound) {
		t.Errorf("err = %v", err)
	}
}
