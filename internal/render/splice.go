package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/starford/wallhub/internal/apperr"
	"github.com/starford/wallhub/internal/storage"
)

var (
	galleryRe = regexp.MustCompile(`(<div class="gallery">)[\s\S]*?(</div>\s*</body>)`)
	readmeRe  = regexp.MustCompile(`(<!-- WALLPAPER_INDEX_START -->)[\s\S]*?(<!-- WALLPAPER_INDEX_END -->)`)
)

// Splice replaces the text between the two groups of the first match of re
// with body. Everything outside the match is kept byte for byte.
func Splice(doc string, re *regexp.Regexp, body, closeIndent string) (string, error) {
	loc := re.FindStringSubmatchIndex(doc)
	if loc == nil || len(loc) < 6 {
		return "", apperr.ErrMarkersNotFound
	}
	open := doc[loc[2]:loc[3]]
	closing := doc[loc[4]:loc[5]]
	return doc[:loc[0]] + open + "\n" + body + "\n" + closeIndent + closing + doc[loc[1]:], nil
}

// spliceFile rewrites the document at path in place. The file is left
// untouched when the markers are missing or nothing changed.
func spliceFile(path string, re *regexp.Regexp, body, closeIndent string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("render: read %s: %w", path, err)
	}
	out, err := Splice(string(data), re, body, closeIndent)
	if err != nil {
		return false, fmt.Errorf("render: %s: %w", path, err)
	}
	if out == string(data) {
		return false, nil
	}

	store, err := storage.NewFS(filepath.Dir(path))
	if err != nil {
		return false, fmt.Errorf("render: %w", err)
	}
	if err := store.Write(filepath.Base(path), []byte(out)); err != nil {
		return false, fmt.Errorf("render: write %s: %w", path, err)
	}
	return true, nil
}
