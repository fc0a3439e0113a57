package geotiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"golang.org/x/image/tiff"
)

// sampleRaster builds a w×h raster whose band i holds i*1000 + x + y*w.
func sampleRaster(w, h, n, bps int) *raster.Memory {
	m := raster.NewMemory(w, h, n, bps)
	mask := uint32(1<<bps - 1)
	for i, b := range m.Bands {
		for j := range b.Pix {
			b.Pix[j] = (uint32(i*1000) + uint32(j)*37) & mask
		}
	}
	return m
}

func decodeBytes(b []byte) (*Dataset, error) {
	return Decode(bytes.NewReader(b), int64(len(b)))
}

func roundTrip(t *testing.T, src *raster.Memory, opt EncodeOptions) *Dataset {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, src, opt); err != nil {
		t.Fatalf("encode: %v", err)
	}
	ds, err := decodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ds
}

func assertSameBands(t *testing.T, got *Dataset, want *raster.Memory) {
	t.Helper()
	if got.Width() != want.Width() || got.Height() != want.Height() {
		t.Fatalf("size: got %dx%d, want %dx%d", got.Width(), got.Height(), want.Width(), want.Height())
	}
	if got.BandCount() != want.BandCount() {
		t.Fatalf("bands: got %d, want %d", got.BandCount(), want.BandCount())
	}
	for i := 1; i <= want.BandCount(); i++ {
		gb, _ := got.ReadBand(i)
		wb, _ := want.ReadBand(i)
		if gb.BitDepth != wb.BitDepth {
			t.Errorf("band %d bit depth: got %d, want %d", i, gb.BitDepth, wb.BitDepth)
		}
		for j := range wb.Pix {
			if gb.Pix[j] != wb.Pix[j] {
				t.Fatalf("band %d sample %d: got %d, want %d", i, j, gb.Pix[j], wb.Pix[j])
			}
		}
	}
}

func TestRoundTripLayouts(t *testing.T) {
	cases := []struct {
		name string
		bps  int
		opt  EncodeOptions
	}{
		{"planar_none_16", 16, EncodeOptions{}},
		{"chunky_none_16", 16, EncodeOptions{Chunky: true}},
		{"planar_deflate_16", 16, EncodeOptions{Compression: CompressionDeflate, RowsPerStrip: 3}},
		{"chunky_zstd_8", 8, EncodeOptions{Compression: CompressionZSTD, Chunky: true}},
		{"planar_predictor_16", 16, EncodeOptions{Compression: CompressionDeflate, Predictor: true, RowsPerStrip: 4}},
		{"chunky_predictor_8", 8, EncodeOptions{Predictor: true, Chunky: true}},
		{"planar_none_32", 32, EncodeOptions{RowsPerStrip: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := sampleRaster(13, 7, 3, tc.bps)
			ds := roundTrip(t, src, tc.opt)
			assertSameBands(t, ds, src)
			if ds.Planar == tc.opt.Chunky {
				t.Errorf("planar: got %v", ds.Planar)
			}
		})
	}
}

func TestGeoreferencing(t *testing.T) {
	src := sampleRaster(100, 50, 1, 16)
	gt := raster.GeoTransform{A: 10, C: 500000, E: -10, F: 4000000}
	ds := roundTrip(t, src, EncodeOptions{EPSG: 32633, Transform: &gt})

	crs, ok := ds.CRS()
	if !ok || crs != "epsg:32633" {
		t.Errorf("crs: got %q (%v), want epsg:32633", crs, ok)
	}
	want := raster.Bounds{MinX: 500000, MinY: 3999500, MaxX: 501000, MaxY: 4000000}
	if b := ds.Bounds(); b != want {
		t.Errorf("bounds: got %+v, want %+v", b, want)
	}
}

func TestGeographicCRS(t *testing.T) {
	gt := raster.GeoTransform{A: 0.5, C: -10, E: -0.5, F: 60}
	ds := roundTrip(t, sampleRaster(4, 4, 1, 8), EncodeOptions{EPSG: 4326, Transform: &gt})
	if crs, _ := ds.CRS(); crs != "epsg:4326" {
		t.Errorf("crs: got %q", crs)
	}
	if b := ds.Bounds(); b.MinX != -10 || b.MaxX != -8 || b.MinY != 58 || b.MaxY != 60 {
		t.Errorf("bounds: got %+v", b)
	}
}

func TestRotatedTransform(t *testing.T) {
	gt := raster.GeoTransform{A: 1, B: 0.5, C: 100, D: 0.5, E: -1, F: 200}
	ds := roundTrip(t, sampleRaster(4, 4, 1, 8), EncodeOptions{Transform: &gt})
	if ds.Transform != gt {
		t.Errorf("transform: got %+v, want %+v", ds.Transform, gt)
	}
	if _, ok := ds.CRS(); ok {
		t.Error("raster without EPSG reported a CRS")
	}
}

func TestNoGeoreferencing(t *testing.T) {
	ds := roundTrip(t, sampleRaster(5, 3, 2, 16), EncodeOptions{})
	if ds.Transform != raster.Identity {
		t.Errorf("transform: got %+v", ds.Transform)
	}
}

func TestPixelIsPointShift(t *testing.T) {
	d := &ifd{order: binary.LittleEndian, fields: map[uint16]field{}}
	put := func(tag uint16, v ...float64) {
		e := &encoder{order: binary.LittleEndian}
		e.double(tag, v...)
		d.fields[tag] = field{typ: dtDouble, count: uint64(len(v)), data: e.entries[0].data}
	}
	put(tModelPixelScale, 2, 2, 0)
	put(tModelTiepoint, 0, 0, 0, 100, 200, 0)
	gt := geoTransform(d, geoKeys{gkRasterType: rasterPixelIsPoint})
	if gt.C != 99 || gt.F != 201 {
		t.Errorf("origin: got (%v, %v), want (99, 201)", gt.C, gt.F)
	}
}

// encodeTiled writes a single-band 16-bit tiled TIFF by hand.
func encodeTiled(t *testing.T, src *raster.Band, tw, th int) []byte {
	t.Helper()
	e := &encoder{order: binary.LittleEndian}
	e.buf.WriteString(leHeader)
	e.buf.Write(make([]byte, 4))
	across := (src.Width + tw - 1) / tw
	down := (src.Height + th - 1) / th
	var offsets, counts []uint32
	for ty := 0; ty < down; ty++ {
		for tx := 0; tx < across; tx++ {
			tile := make([]uint32, tw*th)
			for y := 0; y < th; y++ {
				for x := 0; x < tw; x++ {
					sx, sy := tx*tw+x, ty*th+y
					if sx < src.Width && sy < src.Height {
						tile[y*tw+x] = src.At(sx, sy)
					}
				}
			}
			var blk bytes.Buffer
			packRow(&blk, tile, 16)
			offsets = append(offsets, uint32(e.buf.Len()))
			counts = append(counts, uint32(blk.Len()))
			e.buf.Write(blk.Bytes())
		}
	}
	e.long(tImageWidth, uint32(src.Width))
	e.long(tImageLength, uint32(src.Height))
	e.short(tBitsPerSample, 16)
	e.short(tCompression, uint16(CompressionNone))
	e.short(tPhotometricInterpretation, 1)
	e.short(tSamplesPerPixel, 1)
	e.short(tTileWidth, uint16(tw))
	e.short(tTileLength, uint16(th))
	e.long(tTileOffsets, offsets...)
	e.long(tTileByteCounts, counts...)
	if err := e.finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	return e.buf.Bytes()
}

func TestTiledDecode(t *testing.T) {
	src := sampleRaster(21, 10, 1, 16)
	data := encodeTiled(t, src.Bands[0], 16, 8)
	ds, err := decodeBytes(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ds.Tiled {
		t.Error("tiled flag not set")
	}
	assertSameBands(t, ds, src)
}

func TestPalettedFallback(t *testing.T) {
	pal := color.Palette{color.RGBA{0, 0, 0, 255}, color.RGBA{255, 0, 0, 255}}
	img := image.NewPaletted(image.Rect(0, 0, 4, 2), pal)
	img.SetColorIndex(1, 0, 1)
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		t.Fatalf("tiff encode: %v", err)
	}
	ds, err := decodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ds.BandCount() != 3 {
		t.Fatalf("bands: got %d, want 3", ds.BandCount())
	}
	red, _ := ds.ReadBand(1)
	if red.At(1, 0) != 0xffff || red.At(0, 0) != 0 {
		t.Errorf("red band: got %d/%d", red.At(1, 0), red.At(0, 0))
	}
}

func TestDecode_NotTIFF(t *testing.T) {
	_, err := decodeBytes([]byte("definitely not a tiff"))
	if !errors.Is(err, ErrNotTIFF) {
		t.Errorf("got %v, want ErrNotTIFF", err)
	}
	_, err = decodeBytes(nil)
	if !errors.Is(err, ErrNotTIFF) {
		t.Errorf("empty: got %v, want ErrNotTIFF", err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleRaster(8, 8, 2, 16), EncodeOptions{}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data := buf.Bytes()
	// The IFD is written last, so a short prefix points past the end.
	if _, err := decodeBytes(data[:40]); err == nil {
		t.Error("truncated file decoded without error")
	}
}

// headerOnly declares a w×h raster with spp 16-bit samples whose single
// strip claims count bytes at offset 8, without any pixel data.
func headerOnly(t *testing.T, w, h, spp int, count uint32) []byte {
	t.Helper()
	e := &encoder{order: binary.LittleEndian}
	e.buf.WriteString(leHeader)
	e.buf.Write(make([]byte, 4))
	e.long(tImageWidth, uint32(w))
	e.long(tImageLength, uint32(h))
	bits := make([]uint16, spp)
	for i := range bits {
		bits[i] = 16
	}
	e.short(tBitsPerSample, bits...)
	e.short(tCompression, uint16(CompressionNone))
	e.short(tPhotometricInterpretation, 1)
	e.short(tSamplesPerPixel, uint16(spp))
	e.long(tStripOffsets, 8)
	e.long(tStripByteCounts, count)
	if err := e.finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	return e.buf.Bytes()
}

func TestDecode_HeaderOnly(t *testing.T) {
	cases := []struct {
		name  string
		count uint32
	}{
		{"short strip", 4},
		{"strip past end", 288000000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeBytes(headerOnly(t, 6000, 6000, 4, tc.count))
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("got %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestDecode_TooLarge(t *testing.T) {
	_, err := decodeBytes(headerOnly(t, 100000, 100000, 4, 4))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("got %v, want ErrTooLarge", err)
	}
}

func TestDecode_FieldPastEnd(t *testing.T) {
	data := headerOnly(t, 4, 4, 1, 32)
	// Point BitsPerSample's type at LONG with a count that runs off the file.
	b := append([]byte(nil), data...)
	off := binary.LittleEndian.Uint32(b[4:8])
	n := int(binary.LittleEndian.Uint16(b[off:]))
	for i := 0; i < n; i++ {
		e := b[int(off)+2+i*ifdEntryLen:]
		if binary.LittleEndian.Uint16(e) == tBitsPerSample {
			binary.LittleEndian.PutUint16(e[2:], dtLong)
			binary.LittleEndian.PutUint32(e[4:], 1<<20)
			binary.LittleEndian.PutUint32(e[8:], 8)
		}
	}
	if _, err := decodeBytes(b); !errors.Is(err, ErrCorrupt) {
		t.Errorf("got %v, want ErrCorrupt", err)
	}
}

func TestUnpackBits(t *testing.T) {
	// PackBits sample from TIFF 6.0, section 9.
	src := []byte{0xFE, 0xAA, 0x02, 0x80, 0x00, 0x2A, 0xFD, 0xAA, 0x03, 0x80, 0x00, 0x2A, 0x22, 0xF7, 0xAA}
	want := []byte{0xAA, 0xAA, 0xAA, 0x80, 0x00, 0x2A, 0xAA, 0xAA, 0xAA, 0xAA, 0x80, 0x00, 0x2A, 0x22, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}
	got, err := unpackBits(src, len(want))
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x\nwant % x", got, want)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.tif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	src := sampleRaster(6, 4, 10, 16)
	if err := Encode(f, src, EncodeOptions{Compression: CompressionDeflate}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	ds, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	assertSameBands(t, ds, src)
	if ds.Compression != CompressionDeflate {
		t.Errorf("compression: got %s", ds.Compression)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.tif")); err == nil {
		t.Error("missing file opened without error")
	}
}
