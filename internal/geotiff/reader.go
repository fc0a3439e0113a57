// Package geotiff decodes multi-band GeoTIFF rasters into memory.
//
// It reads the first image directory of classic (non-Big) TIFF files with
// 8, 16 or 32-bit unsigned samples, strip or tile organized, chunky or
// planar, compressed with LZW, Deflate, PackBits or ZSTD. Georeferencing is
// taken from the GeoKeyDirectory, ModelTiepoint/ModelPixelScale and
// ModelTransformation tags. Layouts it cannot read natively (palette or
// sub-byte images) go through golang.org/x/image/tiff instead.
package geotiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/polochinoc/Small-TIFF-API/internal/log"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"go.uber.org/zap"
)

// Dataset is a decoded GeoTIFF.
type Dataset struct {
	*raster.Memory
	Compression Compression
	Tiled       bool
	Planar      bool
	NoData      string // GDAL_NODATA, empty when unset
}

// Open reads and decodes the GeoTIFF at path.
func Open(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	ds, err := Decode(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ds, nil
}

// OpenRaster is Open as a raster.Opener.
func OpenRaster(path string) (raster.Raster, error) {
	ds, err := Open(path)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// maxSamples bounds W*H*bands of a decoded raster.
const maxSamples = 1 << 28

// Decode decodes the first image of a TIFF stream of size bytes. Block
// offsets and counts are checked against size before anything is allocated.
func Decode(r io.ReaderAt, size int64) (*Dataset, error) {
	d, err := readIFD(r, size)
	if err != nil {
		return nil, err
	}
	keys := readGeoKeys(d)
	ds := &Dataset{
		Memory: &raster.Memory{
			W:         int(d.uint(tImageWidth, 0)),
			H:         int(d.uint(tImageLength, 0)),
			Transform: geoTransform(d, keys),
		},
		Compression: Compression(d.uint(tCompression, uint64(CompressionNone))),
		Tiled:       d.has(tTileOffsets),
		Planar:      d.uint(tPlanarConfiguration, planarChunky) == planarSeparate,
		NoData:      d.ascii(tGDALNoData),
	}
	if ds.W <= 0 || ds.H <= 0 {
		return nil, fmt.Errorf("image is %dx%d: %w", ds.W, ds.H, ErrCorrupt)
	}
	if n := uint64(ds.W) * uint64(ds.H) * d.uint(tSamplesPerPixel, 1); n > maxSamples {
		return nil, fmt.Errorf("%dx%d with %d samples per pixel: %w", ds.W, ds.H, d.uint(tSamplesPerPixel, 1), ErrTooLarge)
	}
	ds.CRSCode, _ = keys.crs()

	ds.Bands, err = decodeBands(r, size, d)
	if errors.Is(err, ErrUnsupported) {
		log.Debug("geotiff: native decode unsupported, using x/image/tiff", zap.Error(err))
		ds.Bands, err = decodeFallback(r, size)
	}
	if err != nil {
		return nil, err
	}
	log.Debug("geotiff: decoded",
		zap.Int("width", ds.W), zap.Int("height", ds.H), zap.Int("bands", len(ds.Bands)),
		zap.Stringer("compression", ds.Compression), zap.Bool("tiled", ds.Tiled), zap.Bool("planar", ds.Planar),
		zap.String("crs", ds.CRSCode))
	return ds, nil
}

// layout describes how samples are arranged in strips or tiles.
type layout struct {
	width, height int
	spp, bps      int
	planar        bool
	blockW        int
	blockH        int
	across, down  int
	tiled         bool
	predictor     int
	offsets       []uint64
	counts        []uint64
	order         binary.ByteOrder
}

func newLayout(d *ifd, size int64) (*layout, error) {
	l := &layout{
		width:     int(d.uint(tImageWidth, 0)),
		height:    int(d.uint(tImageLength, 0)),
		spp:       int(d.uint(tSamplesPerPixel, 1)),
		planar:    d.uint(tPlanarConfiguration, planarChunky) == planarSeparate,
		predictor: int(d.uint(tPredictor, predictorNone)),
		order:     d.order,
	}
	if d.uint(tPhotometricInterpretation, 1) == photometricPalette {
		return nil, fmt.Errorf("palette photometric: %w", ErrUnsupported)
	}
	bits := d.uints(tBitsPerSample)
	if len(bits) == 0 {
		bits = []uint64{1}
	}
	l.bps = int(bits[0])
	for _, b := range bits {
		if int(b) != l.bps {
			return nil, fmt.Errorf("mixed bits per sample %v: %w", bits, ErrUnsupported)
		}
	}
	if l.bps != 8 && l.bps != 16 && l.bps != 32 {
		return nil, fmt.Errorf("%d bits per sample: %w", l.bps, ErrUnsupported)
	}
	for _, f := range d.uints(tSampleFormat) {
		if f != sampleFormatUint {
			return nil, fmt.Errorf("sample format %d: %w", f, ErrUnsupported)
		}
	}
	if l.predictor != predictorNone && l.predictor != predictorHorizontal {
		return nil, fmt.Errorf("predictor %d: %w", l.predictor, ErrUnsupported)
	}

	if d.has(tTileOffsets) {
		l.tiled = true
		l.blockW = int(d.uint(tTileWidth, 0))
		l.blockH = int(d.uint(tTileLength, 0))
		l.offsets = d.uints(tTileOffsets)
		l.counts = d.uints(tTileByteCounts)
	} else {
		l.blockW = l.width
		l.blockH = int(d.uint(tRowsPerStrip, uint64(l.height)))
		if l.blockH <= 0 || l.blockH > l.height {
			l.blockH = l.height
		}
		l.offsets = d.uints(tStripOffsets)
		l.counts = d.uints(tStripByteCounts)
	}
	if l.blockW <= 0 || l.blockH <= 0 || l.spp <= 0 {
		return nil, fmt.Errorf("block %dx%d, %d samples: %w", l.blockW, l.blockH, l.spp, ErrCorrupt)
	}
	l.across = (l.width + l.blockW - 1) / l.blockW
	l.down = (l.height + l.blockH - 1) / l.blockH
	want := l.across * l.down * l.planes()
	if len(l.offsets) < want || len(l.counts) < want {
		return nil, fmt.Errorf("have %d blocks, want %d: %w", len(l.offsets), want, ErrCorrupt)
	}
	if n := uint64(l.blockW) * uint64(l.blockH) * uint64(l.samplesPerBlockPixel()); n > maxSamples {
		return nil, fmt.Errorf("block %dx%d: %w", l.blockW, l.blockH, ErrTooLarge)
	}
	if err := l.checkBlocks(Compression(d.uint(tCompression, uint64(CompressionNone))), uint64(size)); err != nil {
		return nil, err
	}
	return l, nil
}

// checkBlocks rejects blocks that lie past the end of the input or that
// could not expand to their decoded size under the compression scheme.
func (l *layout) checkBlocks(c Compression, size uint64) error {
	ratio := c.maxRatio()
	for p := 0; p < l.planes(); p++ {
		for by := 0; by < l.down; by++ {
			for bx := 0; bx < l.across; bx++ {
				idx := p*l.across*l.down + by*l.across + bx
				off, n := l.offsets[idx], l.counts[idx]
				if off > size || n > size-off {
					return fmt.Errorf("block %d: %d bytes at %d past end of %d: %w", idx, n, off, size, ErrCorrupt)
				}
				if need := uint64(l.blockRows(by) * l.rowBytes()); ratio > 0 && need > n*ratio {
					return fmt.Errorf("%s block %d has %d bytes, want %d: %w", c, idx, n, need, ErrCorrupt)
				}
			}
		}
	}
	return nil
}

// blockRows is the number of rows stored in blocks of row by.
func (l *layout) blockRows(by int) int {
	if l.tiled {
		return l.blockH
	}
	return min(l.blockH, l.height-by*l.blockH)
}

func (l *layout) rowBytes() int {
	return l.blockW * l.samplesPerBlockPixel() * l.bps / 8
}

func (l *layout) planes() int {
	if l.planar {
		return l.spp
	}
	return 1
}

// samplesPerBlockPixel is the number of interleaved samples per pixel in a block.
func (l *layout) samplesPerBlockPixel() int {
	if l.planar {
		return 1
	}
	return l.spp
}

func decodeBands(r io.ReaderAt, size int64, d *ifd) ([]*raster.Band, error) {
	l, err := newLayout(d, size)
	if err != nil {
		return nil, err
	}
	dec, err := newDecompressor(Compression(d.uint(tCompression, uint64(CompressionNone))))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	bands := make([]*raster.Band, l.spp)
	for i := range bands {
		bands[i] = raster.NewBand(l.width, l.height, l.bps)
	}

	spbp := l.samplesPerBlockPixel()
	row := make([]uint32, l.blockW*spbp)
	for p := 0; p < l.planes(); p++ {
		for by := 0; by < l.down; by++ {
			for bx := 0; bx < l.across; bx++ {
				idx := p*l.across*l.down + by*l.across + bx
				rows, rowBytes := l.blockRows(by), l.rowBytes()

				raw := make([]byte, l.counts[idx])
				if _, err := r.ReadAt(raw, int64(l.offsets[idx])); err != nil && err != io.EOF {
					return nil, fmt.Errorf("read block %d: %w", idx, ErrCorrupt)
				}
				buf, err := dec.decode(raw, rows*rowBytes)
				if err != nil {
					return nil, fmt.Errorf("block %d: %w", idx, err)
				}

				for ry := 0; ry < rows; ry++ {
					y := by*l.blockH + ry
					if y >= l.height {
						break
					}
					l.unpackRow(buf[ry*rowBytes:(ry+1)*rowBytes], row)
					if l.predictor == predictorHorizontal {
						undiff(row, spbp, l.bps)
					}
					for cx := 0; cx < l.blockW; cx++ {
						x := bx*l.blockW + cx
						if x >= l.width {
							break
						}
						off := y*l.width + x
						if l.planar {
							bands[p].Pix[off] = row[cx]
							continue
						}
						for s := 0; s < l.spp; s++ {
							bands[s].Pix[off] = row[cx*l.spp+s]
						}
					}
				}
			}
		}
	}
	return bands, nil
}

func (l *layout) unpackRow(src []byte, dst []uint32) {
	switch l.bps {
	case 8:
		for i := range dst {
			dst[i] = uint32(src[i])
		}
	case 16:
		for i := range dst {
			dst[i] = uint32(l.order.Uint16(src[2*i:]))
		}
	case 32:
		for i := range dst {
			dst[i] = l.order.Uint32(src[4*i:])
		}
	}
}

// undiff reverses horizontal differencing modulo the sample width.
func undiff(row []uint32, stride, bps int) {
	mask := uint32(1<<bps - 1)
	if bps == 32 {
		mask = ^uint32(0)
	}
	for i := stride; i < len(row); i++ {
		row[i] = (row[i] + row[i-stride]) & mask
	}
}
