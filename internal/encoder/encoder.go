// Package encoder serializes rendered images into artifact files.
package encoder

import (
	"image"
)

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name (e.g. "png", "jpeg").
	Format() string

	// Encode converts the image to bytes. quality (1-100) is ignored by
	// lossless formats.
	Encode(img image.Image, quality int) ([]byte, error)

	// Extension returns the file extension without dot.
	Extension() string

	// MediaType returns the MIME type served for the format.
	MediaType() string

	// KeepsPalette reports whether indexed images survive encoding.
	KeepsPalette() bool
}
