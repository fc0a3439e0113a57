package encoder

import (
	"bytes"
	"image"
	"image/jpeg"
)

// DefaultJPEGQuality is used when the caller passes no quality.
const DefaultJPEGQuality = 90

// JPEGEncoder encodes images to JPEG. Palettes are flattened to RGB.
type JPEGEncoder struct{}

func (e *JPEGEncoder) Format() string     { return "jpeg" }
func (e *JPEGEncoder) Extension() string  { return "jpg" }
func (e *JPEGEncoder) MediaType() string  { return "image/jpeg" }
func (e *JPEGEncoder) KeepsPalette() bool { return false }

func (e *JPEGEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	buf.Grow(64 * 1024)

	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
