package encoder

import (
	"bytes"
	"image"
	"image/png"
	"sync"
)

// PNGEncoder encodes images to PNG. Paletted images are written as indexed
// PNGs with their color table.
type PNGEncoder struct {
	Level png.CompressionLevel
}

func (e *PNGEncoder) Format() string     { return "png" }
func (e *PNGEncoder) Extension() string  { return "png" }
func (e *PNGEncoder) MediaType() string  { return "image/png" }
func (e *PNGEncoder) KeepsPalette() bool { return true }

var pngBuffers sync.Pool

type pngBufferPool struct{}

func (pngBufferPool) Get() *png.EncoderBuffer {
	b, _ := pngBuffers.Get().(*png.EncoderBuffer)
	return b
}

func (pngBufferPool) Put(b *png.EncoderBuffer) { pngBuffers.Put(b) }

func (e *PNGEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(64 * 1024)

	enc := &png.Encoder{CompressionLevel: e.Level, BufferPool: pngBufferPool{}}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
