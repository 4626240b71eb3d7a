package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

// Thumbnailer renders JPEG previews of room photos and avatars.
type Thumbnailer struct {
	box     int
	quality int
}

// NewThumbnailer returns a Thumbnailer that fits images inside a box x box square.
func NewThumbnailer(box, quality int) *Thumbnailer {
	return &Thumbnailer{box: box, quality: quality}
}

// Make decodes src, honours EXIF orientation, shrinks it into the box and encodes JPEG.
// Transparent pixels are flattened onto white. Images already smaller than the box keep their size.
func (t *Thumbnailer) Make(src io.Reader) (*bytes.Buffer, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > t.box || b.Dy() > t.box {
		img = imaging.Fit(img, t.box, t.box, imaging.Lanczos)
	}

	canvas := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	flat := imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	out := new(bytes.Buffer)
	if err := jpeg.Encode(out, flat, &jpeg.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return out, nil
}
