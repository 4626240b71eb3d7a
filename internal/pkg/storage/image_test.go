package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, fill color.Color) *bytes.Buffer {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf
}

func TestThumbnailerFitsIntoBox(t *testing.T) {
	th := NewThumbnailer(400, 80)

	out, err := th.Make(encodePNG(t, 800, 400, color.NRGBA{R: 200, A: 255}))
	require.NoError(t, err)

	thumb, err := jpeg.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 400, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())
}

func TestThumbnailerKeepsSmallImagesAndFlattensAlpha(t *testing.T) {
	th := NewThumbnailer(400, 90)

	out, err := th.Make(encodePNG(t, 40, 30, color.NRGBA{}))
	require.NoError(t, err)

	thumb, err := jpeg.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), thumb.Bounds())

	r, g, b, _ := thumb.At(20, 15).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestThumbnailerRejectsNonImages(t *testing.T) {
	_, err := NewThumbnailer(400, 80).Make(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}
