package geotiff

import (
	"fmt"
	"image"
	"io"

	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"golang.org/x/image/tiff"
)

// decodeFallback decodes layouts the native reader rejects through
// x/image/tiff and splits the result into 16-bit bands: one band for gray
// images, R, G, B (and A when not opaque) otherwise.
func decodeFallback(r io.ReaderAt, size int64) ([]*raster.Band, error) {
	img, err := tiff.Decode(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("x/image/tiff: %v: %w", err, ErrUnsupported)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		band := raster.NewBand(w, h, 16)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				band.Pix[y*w+x] = r
			}
		}
		return []*raster.Band{band}, nil
	}

	bands := []*raster.Band{raster.NewBand(w, h, 16), raster.NewBand(w, h, 16), raster.NewBand(w, h, 16), raster.NewBand(w, h, 16)}
	opaque := true
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cr, cg, cb, ca := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			off := y*w + x
			bands[0].Pix[off], bands[1].Pix[off], bands[2].Pix[off], bands[3].Pix[off] = cr, cg, cb, ca
			if ca != 0xffff {
				opaque = false
			}
		}
	}
	if opaque {
		bands = bands[:3]
	}
	return bands, nil
}
