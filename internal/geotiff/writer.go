package geotiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// EncodeOptions controls Encode.
type EncodeOptions struct {
	Compression  Compression // None, Deflate or ZSTD
	Chunky       bool        // pixel-interleaved instead of band-separate
	Predictor    bool        // horizontal differencing
	RowsPerStrip int         // 0 writes one strip per plane
	EPSG         int         // 0 leaves the CRS unset
	Transform    *raster.GeoTransform
}

// Encode writes r as a little-endian strip GeoTIFF. Every band must share
// the bit depth of band 1.
func Encode(w io.Writer, r raster.Raster, opt EncodeOptions) error {
	n := r.BandCount()
	if n == 0 {
		return fmt.Errorf("encode: no bands: %w", ErrUnsupported)
	}
	bands := make([]*raster.Band, n)
	for i := range bands {
		b, err := r.ReadBand(i + 1)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		bands[i] = b
	}
	bps := bands[0].BitDepth
	for _, b := range bands {
		if b.BitDepth != bps {
			return fmt.Errorf("encode: mixed bit depths: %w", ErrUnsupported)
		}
	}
	if bps != 8 && bps != 16 && bps != 32 {
		return fmt.Errorf("encode: %d bits: %w", bps, ErrUnsupported)
	}
	if opt.Compression == 0 {
		opt.Compression = CompressionNone
	}
	width, height := r.Width(), r.Height()
	rps := opt.RowsPerStrip
	if rps <= 0 || rps > height {
		rps = height
	}

	e := &encoder{order: binary.LittleEndian}
	e.buf.WriteString(leHeader)
	e.buf.Write(make([]byte, 4)) // IFD offset, patched below

	spbp, planes := n, 1
	if !opt.Chunky {
		spbp, planes = 1, n
	}
	var offsets, counts []uint32
	row := make([]uint32, width*spbp)
	for p := 0; p < planes; p++ {
		for y0 := 0; y0 < height; y0 += rps {
			var strip bytes.Buffer
			for y := y0; y < min(y0+rps, height); y++ {
				for x := 0; x < width; x++ {
					if opt.Chunky {
						for s := 0; s < n; s++ {
							row[x*n+s] = bands[s].Pix[y*width+x]
						}
					} else {
						row[x] = bands[p].Pix[y*width+x]
					}
				}
				if opt.Predictor {
					diff(row, spbp, bps)
				}
				packRow(&strip, row, bps)
			}
			data, err := compress(strip.Bytes(), opt.Compression)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			offsets = append(offsets, uint32(e.buf.Len()))
			counts = append(counts, uint32(len(data)))
			e.buf.Write(data)
		}
	}

	bits := make([]uint16, n)
	formats := make([]uint16, n)
	for i := range bits {
		bits[i] = uint16(bps)
		formats[i] = sampleFormatUint
	}
	photometric := uint16(1)
	planar := uint16(planarSeparate)
	if opt.Chunky {
		planar = planarChunky
	}
	predictor := uint16(predictorNone)
	if opt.Predictor {
		predictor = predictorHorizontal
	}
	e.long(tImageWidth, uint32(width))
	e.long(tImageLength, uint32(height))
	e.short(tBitsPerSample, bits...)
	e.short(tCompression, uint16(opt.Compression))
	e.short(tPhotometricInterpretation, photometric)
	e.long(tStripOffsets, offsets...)
	e.short(tSamplesPerPixel, uint16(n))
	e.long(tRowsPerStrip, uint32(rps))
	e.long(tStripByteCounts, counts...)
	e.short(tPlanarConfiguration, planar)
	e.short(tPredictor, predictor)
	e.short(tSampleFormat, formats...)
	if gt := opt.Transform; gt != nil {
		if gt.B == 0 && gt.D == 0 {
			e.double(tModelPixelScale, gt.A, -gt.E, 0)
			e.double(tModelTiepoint, 0, 0, 0, gt.C, gt.F, 0)
		} else {
			e.double(tModelTransformation,
				gt.A, gt.B, 0, gt.C,
				gt.D, gt.E, 0, gt.F,
				0, 0, 0, 0,
				0, 0, 0, 1)
		}
	}
	if opt.EPSG > 0 || opt.Transform != nil {
		e.short(tGeoKeyDirectory, geoKeyDirectory(opt.EPSG)...)
	}

	if err := e.finish(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err := w.Write(e.buf.Bytes())
	return err
}

// WriteFile encodes r into a new file at path.
func WriteFile(path string, r raster.Raster, opt EncodeOptions) error {
	var buf bytes.Buffer
	if err := Encode(&buf, r, opt); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func geoKeyDirectory(epsg int) []uint16 {
	const version, revision, minor = 1, 1, 0
	keys := [][4]uint16{{gkRasterType, 0, 1, 1}}
	switch {
	case epsg >= 4000 && epsg < 5000:
		keys = append(keys, [4]uint16{gkModelType, 0, 1, modelTypeGeographic}, [4]uint16{gkGeographicType, 0, 1, uint16(epsg)})
	case epsg > 0:
		keys = append(keys, [4]uint16{gkModelType, 0, 1, modelTypeProjected}, [4]uint16{gkProjectedType, 0, 1, uint16(epsg)})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i][0] < keys[j][0] })
	out := []uint16{version, revision, minor, uint16(len(keys))}
	for _, k := range keys {
		out = append(out, k[:]...)
	}
	return out
}

type entry struct {
	tag, typ uint16
	count    uint32
	data     []byte
}

type encoder struct {
	order   binary.ByteOrder
	buf     bytes.Buffer
	entries []entry
}

func (e *encoder) short(tag uint16, v ...uint16) {
	data := make([]byte, 2*len(v))
	for i, x := range v {
		e.order.PutUint16(data[2*i:], x)
	}
	e.entries = append(e.entries, entry{tag, dtShort, uint32(len(v)), data})
}

func (e *encoder) long(tag uint16, v ...uint32) {
	data := make([]byte, 4*len(v))
	for i, x := range v {
		e.order.PutUint32(data[4*i:], x)
	}
	e.entries = append(e.entries, entry{tag, dtLong, uint32(len(v)), data})
}

func (e *encoder) double(tag uint16, v ...float64) {
	data := make([]byte, 8*len(v))
	for i, x := range v {
		e.order.PutUint64(data[8*i:], math.Float64bits(x))
	}
	e.entries = append(e.entries, entry{tag, dtDouble, uint32(len(v)), data})
}

// finish appends out-of-line field data and the IFD, then patches the header.
func (e *encoder) finish() error {
	sort.Slice(e.entries, func(i, j int) bool { return e.entries[i].tag < e.entries[j].tag })
	values := make([][4]byte, len(e.entries))
	for i, en := range e.entries {
		if len(en.data) <= 4 {
			copy(values[i][:], en.data)
			continue
		}
		if e.buf.Len()%2 == 1 {
			e.buf.WriteByte(0)
		}
		e.order.PutUint32(values[i][:], uint32(e.buf.Len()))
		e.buf.Write(en.data)
	}
	if e.buf.Len()%2 == 1 {
		e.buf.WriteByte(0)
	}
	ifdOff := e.buf.Len()
	if int64(ifdOff) > math.MaxUint32 {
		return fmt.Errorf("file exceeds 4 GiB: %w", ErrUnsupported)
	}
	var tmp [12]byte
	e.order.PutUint16(tmp[:2], uint16(len(e.entries)))
	e.buf.Write(tmp[:2])
	for i, en := range e.entries {
		e.order.PutUint16(tmp[0:], en.tag)
		e.order.PutUint16(tmp[2:], en.typ)
		e.order.PutUint32(tmp[4:], en.count)
		copy(tmp[8:], values[i][:])
		e.buf.Write(tmp[:])
	}
	e.buf.Write(make([]byte, 4)) // no next IFD
	e.order.PutUint32(e.buf.Bytes()[4:8], uint32(ifdOff))
	return nil
}

func packRow(w *bytes.Buffer, row []uint32, bps int) {
	var tmp [4]byte
	for _, v := range row {
		switch bps {
		case 8:
			w.WriteByte(byte(v))
		case 16:
			binary.LittleEndian.PutUint16(tmp[:2], uint16(v))
			w.Write(tmp[:2])
		case 32:
			binary.LittleEndian.PutUint32(tmp[:], v)
			w.Write(tmp[:])
		}
	}
}

func diff(row []uint32, stride, bps int) {
	mask := uint32(1<<bps - 1)
	if bps == 32 {
		mask = ^uint32(0)
	}
	for i := len(row) - 1; i >= stride; i-- {
		row[i] = (row[i] - row[i-stride]) & mask
	}
}

func compress(src []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return append([]byte(nil), src...), nil
	case CompressionDeflate, CompressionDeflate2:
		var out bytes.Buffer
		zw := zlib.NewWriter(&out)
		if _, err := zw.Write(src); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	case CompressionZSTD:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(src, nil), nil
	}
	return nil, fmt.Errorf("write compression %s: %w", c, ErrUnsupported)
}
