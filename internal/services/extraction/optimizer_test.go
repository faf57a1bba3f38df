package extraction

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 100, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestOptimizeImageReencodesAsJPEG(t *testing.T) {
	data, ct := OptimizeImage(pngBytes(t, 100, 150), "image/png")
	assert.Equal(t, "image/jpeg", ct)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
}

func TestOptimizeImageShrinksLargeImages(t *testing.T) {
	data, ct := OptimizeImage(pngBytes(t, 2400, 1000), "image/png")
	assert.Equal(t, "image/jpeg", ct)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), maxImageWidth)
	assert.LessOrEqual(t, img.Bounds().Dy(), maxImageHeight)
}

func TestOptimizeImagePassesThroughUndecodable(t *testing.T) {
	raw := []byte("definitely not an image")
	data, ct := OptimizeImage(raw, "image/jpeg")
	assert.Equal(t, raw, data)
	assert.Equal(t, "image/jpeg", ct)
}
