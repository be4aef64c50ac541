package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte(`{"date":"2025-12-10"}`)
	if err := s.Write("meta.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("meta.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("bing/2025-12-10/story.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("bing/2025-12-10/story.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestExists(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("bing/2025-12-10/image.jpg", []byte("jpg"))

	if !s.Exists("bing/2025-12-10/image.jpg") {
		t.Error("Exists = false for written file")
	}
	if s.Exists("bing/2025-12-10/thumb.jpg") {
		t.Error("Exists = true for missing file")
	}
	if s.Exists("bing/2025-12-10") {
		t.Error("Exists = true for a directory")
	}
	if s.Exists("../escape.jpg") {
		t.Error("Exists = true for path outside root")
	}
}

func TestListDirs(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("bing/2025-12-09/meta.json", []byte("{}"))
	_ = s.Write("bing/2025-12-10/meta.json", []byte("{}"))
	_ = s.Write("bing/README.txt", []byte("not a dir"))
	_ = os.MkdirAll(filepath.Join(s.root, "bing", ".cache"), 0o755)

	dirs, err := s.ListDirs("bing")
	if err != nil {
		t.Fatalf("ListDirs: %v", err)
	}
	if len(dirs) != 2 || dirs[0] != "2025-12-09" || dirs[1] != "2025-12-10" {
		t.Errorf("dirs = %v", dirs)
	}

	missing, err := s.ListDirs("unsplash")
	if err != nil {
		t.Fatalf("ListDirs missing: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("missing dir listed %v", missing)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.json",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if _, err := s.Abs(p); err == nil {
			t.Errorf("expected error for abs of %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("meta.json", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("meta.json", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("meta.json")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".wallhub-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestAbs(t *testing.T) {
	s := tempRoot(t)
	abs, err := s.Abs("bing/2025-12-10/image.jpg")
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	want := filepath.Join(s.Root(), "bing", "2025-12-10", "image.jpg")
	if abs != want {
		t.Errorf("Abs = %q, want %q", abs, want)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/wallhub-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "wallhub-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
