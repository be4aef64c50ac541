package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu      sync.Mutex
	batches [][]Change
}

func (r *recorder) add(changes []Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, changes)
}

func (r *recorder) all() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Change
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func startWatch(t *testing.T, root string) *recorder {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &recorder{}
	go Watch(ctx, root, 100*time.Millisecond, logger, rec.add)
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatch_NewEntryReportedOnce(t *testing.T) {
	root, a := testutil.TestArchive(t)
	rec := startWatch(t, root)

	k := archive.Key{Source: "bing", Date: "2025-12-10"}
	testutil.WriteEntry(t, a, k, "Lake", testutil.EntryOptions{})

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return len(rec.all()) > 0
	}, "new entry not reported")

	time.Sleep(300 * time.Millisecond)
	changes := rec.all()
	if len(changes) != 1 {
		t.Fatalf("changes = %+v, want one per entry", changes)
	}
	if changes[0].Key != k || !changes[0].Created {
		t.Errorf("change = %+v", changes[0])
	}
}

func TestWatch_MetaRewriteIsUpdate(t *testing.T) {
	root, a := testutil.TestArchive(t)
	k := archive.Key{Source: "bing", Date: "2025-12-10"}
	testutil.WriteEntry(t, a, k, "Lake", testutil.EntryOptions{})
	rec := startWatch(t, root)

	m, err := a.ReadMeta(k)
	if err != nil {
		t.Fatal(err)
	}
	m.Title = "Renamed"
	if err := a.WriteMeta(k, m); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		c := rec.all()
		return len(c) == 1 && c[0].Key == k && !c[0].Created
	}, "meta rewrite not reported as update")
}

func TestWatch_IgnoresUnrelatedFiles(t *testing.T) {
	root, _ := testutil.TestArchive(t)
	rec := startWatch(t, root)

	if err := os.MkdirAll(filepath.Join(root, "bing", "drafts"), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "bing", "drafts", "image.jpg"), []byte("x"), 0o644)

	time.Sleep(500 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("unexpected changes: %+v", rec.all())
	}
}

func TestEntryFile(t *testing.T) {
	root := "/w"
	cases := []struct {
		path string
		ok   bool
		name string
	}{
		{"/w/bing/2025-12-10/image.jpg", true, "image.jpg"},
		{"/w/bing/2025-12-10/story.md", true, "story.md"},
		{"/w/bing/2025-12-10/.wallhub-tmp-123", false, ""},
		{"/w/bing/2025-12-10/other.txt", false, ""},
		{"/w/bing/latest/image.jpg", false, ""},
		{"/w/bing/image.jpg", false, ""},
		{"/elsewhere/bing/2025-12-10/image.jpg", false, ""},
	}
	for _, c := range cases {
		k, name, ok := entryFile(root, c.path)
		if ok != c.ok || name != c.name {
			t.Errorf("entryFile(%q) = %v %q %v", c.path, k, name, ok)
		}
		if ok && (k.Source != "bing" || k.Date != "2025-12-10") {
			t.Errorf("entryFile(%q) key = %+v", c.path, k)
		}
	}
}
