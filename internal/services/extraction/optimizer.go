package extraction

import (
	"bytes"

	"github.com/disintegration/imaging"
)

const (
	maxImageWidth    = 1200
	maxImageHeight   = 2000
	targetImageBytes = 500 * 1024
	startQuality     = 85
	minQuality       = 60
)

// OptimizeImage shrinks and re-encodes an image as JPEG before it is sent to
// the model, stepping the quality down until the result fits the size target.
// If the payload cannot be decoded it is returned untouched.
func OptimizeImage(data []byte, contentType string) ([]byte, string) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, contentType
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageWidth || bounds.Dy() > maxImageHeight {
		img = imaging.Fit(img, maxImageWidth, maxImageHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	for quality := startQuality; quality >= minQuality; quality -= 5 {
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return data, contentType
		}
		if buf.Len() <= targetImageBytes {
			break
		}
	}
	return buf.Bytes(), "image/jpeg"
}
