// Package watch reports archive entries that change on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/models"
)

// Change is one entry touched during a debounce window.
type Change struct {
	Key archive.Key
	// Created is set when the entry's image appeared in the window.
	Created bool
}

// ChangeCallback receives the changes collected in one debounce window,
// ordered by first appearance.
type ChangeCallback func(changes []Change)

const tempPrefix = ".wallhub-tmp-"

// Watch follows the wallpapers root until ctx is cancelled. Writes that land
// in source/date/ directories are grouped per entry and delivered to cb once
// the tree has been quiet for debounce.
//
// Directories created at runtime are added to the watch list.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	logger.Info("watcher: started", slog.String("root", root))

	var (
		order   []archive.Key
		pending = make(map[archive.Key]bool)
		timer   *time.Timer
		fire    <-chan time.Time
	)

	touch := func(k archive.Key, created bool) {
		was, seen := pending[k]
		if !seen {
			order = append(order, k)
		}
		pending[k] = was || created
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			changes := make([]Change, 0, len(order))
			for _, k := range order {
				changes = append(changes, Change{Key: k, Created: pending[k]})
			}
			order = nil
			pending = make(map[archive.Key]bool)
			logger.Debug("watcher: flush", slog.Int("entries", len(changes)))
			if cb != nil && len(changes) > 0 {
				cb(changes)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files can land before the directory is watched.
					_ = filepath.WalkDir(ev.Name, func(path string, d fs.DirEntry, err error) error {
						if err != nil || d.IsDir() {
							return nil
						}
						if k, name, ok := entryFile(root, path); ok {
							touch(k, name == archive.ImageFile)
						}
						return nil
					})
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			k, name, ok := entryFile(root, ev.Name)
			if !ok {
				continue
			}
			touch(k, name == archive.ImageFile && ev.Op&fsnotify.Create != 0)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// entryFile maps an absolute path to the entry holding it. Temp files from
// atomic writes and paths outside source/date/file are rejected.
func entryFile(root, abs string) (archive.Key, string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return archive.Key{}, "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 || strings.HasPrefix(parts[2], tempPrefix) {
		return archive.Key{}, "", false
	}
	if _, err := time.Parse(models.DateLayout, parts[1]); err != nil {
		return archive.Key{}, "", false
	}
	switch parts[2] {
	case archive.ImageFile, archive.ThumbFile, archive.MetaFile, archive.StoryFile:
		return archive.Key{Source: parts[0], Date: parts[1]}, parts[2], true
	}
	return archive.Key{}, "", false
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
