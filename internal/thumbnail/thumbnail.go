// Package thumbnail produces reduced-resolution JPEG copies of wallpapers.
package thumbnail

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Generator resizes images to a fixed width, preserving aspect ratio.
type Generator struct {
	width   int
	quality int
}

// New creates a Generator. Images narrower than width are re-encoded
// without upscaling.
func New(width, quality int) *Generator {
	return &Generator{width: width, quality: quality}
}

// Generate decodes src and returns the JPEG thumbnail bytes.
func (g *Generator) Generate(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode: %w", err)
	}
	if img.Bounds().Dx() > g.width {
		img = imaging.Resize(img, g.width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(g.quality)); err != nil {
		return nil, fmt.Errorf("thumbnail: encode: %w", err)
	}
	return buf.Bytes(), nil
}
