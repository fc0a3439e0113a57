//go:build ignore

// gen_fixtures creates small GeoTIFF rasters for the E2E smoke test.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/polochinoc/Small-TIFF-API/internal/geotiff"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	os.MkdirAll(filepath.Join(dir, "scenes"), 0o755)

	utm := &raster.GeoTransform{A: 10, C: 500000, E: -10, F: 4000000}

	// Reference layout: 10 bands, a vegetated disc on bare land.
	write(filepath.Join(dir, "field.tif"), field(256, 192, 10), geotiff.EncodeOptions{
		Compression: geotiff.CompressionDeflate, Predictor: true, EPSG: 32631, Transform: utm,
	})

	// Same scene, pixel interleaved and uncompressed.
	write(filepath.Join(dir, "scenes", "field-chunky.tif"), field(128, 128, 10), geotiff.EncodeOptions{
		Chunky: true, RowsPerStrip: 16, EPSG: 32631, Transform: utm,
	})

	// ZSTD, geographic CRS.
	write(filepath.Join(dir, "scenes", "field-zstd.tif"), field(64, 96, 10), geotiff.EncodeOptions{
		Compression: geotiff.CompressionZSTD, EPSG: 4326,
		Transform: &raster.GeoTransform{A: 0.0001, C: 2.35, E: -0.0001, F: 48.85},
	})

	// Single black band, no georeferencing.
	write(filepath.Join(dir, "black.tif"), raster.NewMemory(32, 32, 1, 16), geotiff.EncodeOptions{})

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 4 fixtures in %s\n", dir)
}

// field returns a raster whose red bands fall and near-infrared bands rise
// towards the centre.
func field(w, h, n int) *raster.Memory {
	m := raster.NewMemory(w, h, n, 16)
	cx, cy := float64(w)/2, float64(h)/2
	rmax := math.Hypot(cx, cy)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / rmax
			for i, b := range m.Bands {
				v := d
				if i >= 4 {
					v = 1 - d
				}
				b.Pix[y*w+x] = uint32(2000 + v*40000 + float64(i*500))
			}
		}
	}
	return m
}

func write(path string, r raster.Raster, opt geotiff.EncodeOptions) {
	if err := geotiff.WriteFile(path, r, opt); err != nil {
		panic(err)
	}
}
