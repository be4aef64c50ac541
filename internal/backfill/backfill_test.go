package backfill

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/story"
	"github.com/starford/wallhub/internal/testutil"
)

type fakeStories struct {
	fail  map[string]bool
	calls []string
}

func (f *fakeStories) Generate(_ context.Context, req story.Request) (string, error) {
	f.calls = append(f.calls, req.Title)
	if f.fail[req.Title] {
		return "", errors.New("quota exceeded")
	}
	if len(req.Image) == 0 {
		return "", errors.New("no image")
	}
	return "# " + req.Title + "\n", nil
}

type fakeMirror struct {
	calls []string
}

func (f *fakeMirror) Mirror(_ context.Context, k archive.Key, names ...string) error {
	for _, n := range names {
		f.calls = append(f.calls, k.File(n))
	}
	return nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRun_FillsMissingStories(t *testing.T) {
	_, a := testutil.TestArchive(t)
	testutil.WriteEntry(t, a, archive.Key{Source: "bing", Date: "2025-12-09"}, "older", testutil.EntryOptions{})
	testutil.WriteEntry(t, a, archive.Key{Source: "bing", Date: "2025-12-10"}, "newer", testutil.EntryOptions{})
	testutil.WriteEntry(t, a, archive.Key{Source: "bing", Date: "2025-12-11"}, "done", testutil.EntryOptions{Story: "# kept"})
	testutil.WriteEntry(t, a, archive.Key{Source: "retired", Date: "2025-01-01"}, "retired", testutil.EntryOptions{})
	testutil.WriteEntry(t, a, archive.Key{Source: "unsplash", Date: "2025-12-10"}, "noimage", testutil.EntryOptions{NoImage: true})

	stories := &fakeStories{}
	mirror := &fakeMirror{}
	regenerated := 0
	b := New(a, stories, mirror, func(context.Context) error { regenerated++; return nil }, quiet())

	res, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Written != 3 || res.Incomplete != 1 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}
	if len(stories.calls) != 3 || stories.calls[0] != "newer" || stories.calls[1] != "older" {
		t.Errorf("calls = %v", stories.calls)
	}
	if regenerated != 1 {
		t.Errorf("regenerated = %d, want 1", regenerated)
	}

	k := archive.Key{Source: "bing", Date: "2025-12-10"}
	m, _ := a.ReadMeta(k)
	if !m.HasStory {
		t.Error("has_story not set")
	}
	if s, _ := a.ReadStory(archive.Key{Source: "bing", Date: "2025-12-11"}); s != "# kept" {
		t.Errorf("existing story replaced: %q", s)
	}
	if len(mirror.calls) != 6 || mirror.calls[0] != "bing/2025-12-10/story.md" || mirror.calls[1] != "bing/2025-12-10/meta.json" {
		t.Errorf("mirror calls = %v", mirror.calls)
	}
}

func TestRun_FailureIsPerEntry(t *testing.T) {
	_, a := testutil.TestArchive(t)
	testutil.WriteEntry(t, a, archive.Key{Source: "bing", Date: "2025-12-09"}, "bad", testutil.EntryOptions{})
	testutil.WriteEntry(t, a, archive.Key{Source: "bing", Date: "2025-12-10"}, "good", testutil.EntryOptions{})

	stories := &fakeStories{fail: map[string]bool{"bad": true}}
	b := New(a, stories, nil, nil, quiet())

	res, err := b.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Written != 1 || res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
	m, _ := a.ReadMeta(archive.Key{Source: "bing", Date: "2025-12-09"})
	if m.HasStory {
		t.Error("failed entry marked as having a story")
	}
}

func TestRun_NothingWrittenSkipsRegeneration(t *testing.T) {
	_, a := testutil.TestArchive(t)
	testutil.WriteEntry(t, a, archive.Key{Source: "bing", Date: "2025-12-10"}, "done", testutil.EntryOptions{Story: "# s"})

	regenerated := false
	b := New(a, &fakeStories{}, nil, func(context.Context) error { regenerated = true; return nil }, quiet())
	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if regenerated {
		t.Error("documents regenerated without new stories")
	}
}

func TestRun_InvalidMetaLeavesNoStory(t *testing.T) {
	_, a := testutil.TestArchive(t)
	k := archive.Key{Source: "bing", Date: "2025-12-10"}
	testutil.WriteEntry(t, a, k, "lake", testutil.EntryOptions{NoMeta: true})
	if err := a.Store().Write(k.File(archive.MetaFile), []byte(`{"date":"2025-12-10","title":"lake","has_story":false}`)); err != nil {
		t.Fatal(err)
	}

	stories := &fakeStories{}
	b := New(a, stories, nil, nil, quiet())
	for run := 1; run <= 2; run++ {
		res, err := b.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Failed != 1 || res.Written != 0 {
			t.Errorf("run %d: result = %+v", run, res)
		}
	}
	if len(stories.calls) != 0 {
		t.Errorf("story requested for invalid meta: %v", stories.calls)
	}
	if a.HasStory(k) {
		t.Error("story.md written next to a meta that cannot record it")
	}
}
