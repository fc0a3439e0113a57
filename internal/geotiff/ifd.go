package geotiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/google/tiff"
)

// maxFieldBytes bounds the size of a single IFD field.
const maxFieldBytes = 1 << 28

var errReadBudget = errors.New("directory reads exceed input size")

// ifd is the first image file directory of a file.
type ifd struct {
	order  binary.ByteOrder
	fields map[uint16]tiff.Field
}

func readIFD(r io.ReaderAt, size int64) (*ifd, error) {
	order, err := checkFirstIFD(r, size)
	if err != nil {
		return nil, err
	}
	// Parse follows the whole directory chain. The budget stops cyclic chains.
	br := &budgetReader{SectionReader: io.NewSectionReader(r, 0, size), left: 4*size + 1<<16}
	t, err := tiff.Parse(br, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("parse directories: %v: %w", err, ErrCorrupt)
	}
	ifds := t.IFDs()
	if len(ifds) == 0 {
		return nil, fmt.Errorf("no image directory: %w", ErrCorrupt)
	}
	d := &ifd{order: order, fields: make(map[uint16]tiff.Field)}
	for _, f := range ifds[0].Fields() {
		d.fields[f.Tag().ID()] = f
	}
	return d, nil
}

// checkFirstIFD validates the header and the first directory's entry sizes
// against the input length. tiff.Parse allocates field values from their
// declared counts, so oversized entries are rejected before it runs.
func checkFirstIFD(r io.ReaderAt, size int64) (binary.ByteOrder, error) {
	var hdr [8]byte
	if size < int64(len(hdr)) {
		return nil, ErrNotTIFF
	}
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("read header: %w", ErrNotTIFF)
	}
	var order binary.ByteOrder
	switch string(hdr[:4]) {
	case leHeader:
		order = binary.LittleEndian
	case beHeader:
		order = binary.BigEndian
	default:
		if string(hdr[:2]) == "II" || string(hdr[:2]) == "MM" {
			return nil, fmt.Errorf("BigTIFF or unknown version: %w", ErrUnsupported)
		}
		return nil, ErrNotTIFF
	}

	off := int64(order.Uint32(hdr[4:8]))
	var cnt [2]byte
	if _, err := r.ReadAt(cnt[:], off); err != nil {
		return nil, fmt.Errorf("read ifd count: %w", ErrCorrupt)
	}
	n := int(order.Uint16(cnt[:]))
	buf := make([]byte, n*ifdEntryLen)
	if _, err := r.ReadAt(buf, off+2); err != nil {
		return nil, fmt.Errorf("read ifd entries: %w", ErrCorrupt)
	}
	for i := 0; i < n; i++ {
		e := buf[i*ifdEntryLen : (i+1)*ifdEntryLen]
		tag, typ := order.Uint16(e[0:2]), order.Uint16(e[2:4])
		if int(typ) >= len(typeLen) || typ == 0 {
			continue
		}
		sz := uint64(order.Uint32(e[4:8])) * uint64(typeLen[typ])
		if sz <= 4 {
			continue
		}
		at := uint64(order.Uint32(e[8:12]))
		if sz > maxFieldBytes || at > uint64(size) || sz > uint64(size)-at {
			return nil, fmt.Errorf("tag %d: %d bytes at %d: %w", tag, sz, at, ErrCorrupt)
		}
	}
	return order, nil
}

// budgetReader fails once the total bytes read exceed left.
type budgetReader struct {
	*io.SectionReader
	left int64
}

func (b *budgetReader) spend(n int) error {
	if int64(n) > b.left {
		return errReadBudget
	}
	b.left -= int64(n)
	return nil
}

func (b *budgetReader) Read(p []byte) (int, error) {
	if err := b.spend(len(p)); err != nil {
		return 0, err
	}
	return b.SectionReader.Read(p)
}

func (b *budgetReader) ReadAt(p []byte, off int64) (int, error) {
	if err := b.spend(len(p)); err != nil {
		return 0, err
	}
	return b.SectionReader.ReadAt(p, off)
}

func (d *ifd) has(tag uint16) bool {
	_, ok := d.fields[tag]
	return ok
}

// raw returns the field's type, count and value bytes, or ok=false when the
// tag is absent or its value is shorter than its count implies.
func (d *ifd) raw(tag uint16) (typ uint16, count int, data []byte, ok bool) {
	f, found := d.fields[tag]
	if !found {
		return 0, 0, nil, false
	}
	typ, count = f.Type().ID(), int(f.Count())
	if int(typ) >= len(typeLen) || typ == 0 {
		return 0, 0, nil, false
	}
	data = f.Value().Bytes()
	if len(data) < count*typeLen[typ] {
		return 0, 0, nil, false
	}
	return typ, count, data, true
}

// uints decodes an integer-typed field.
func (d *ifd) uints(tag uint16) []uint64 {
	typ, count, data, ok := d.raw(tag)
	if !ok {
		return nil
	}
	out := make([]uint64, count)
	for i := range out {
		switch typ {
		case dtByte, dtUndefined, dtSByte:
			out[i] = uint64(data[i])
		case dtShort, dtSShort:
			out[i] = uint64(d.order.Uint16(data[2*i:]))
		case dtLong, dtSLong:
			out[i] = uint64(d.order.Uint32(data[4*i:]))
		default:
			return nil
		}
	}
	return out
}

// uint returns the first value of an integer field, or def when absent.
func (d *ifd) uint(tag uint16, def uint64) uint64 {
	if v := d.uints(tag); len(v) > 0 {
		return v[0]
	}
	return def
}

func (d *ifd) floats(tag uint16) []float64 {
	typ, count, data, ok := d.raw(tag)
	if !ok {
		return nil
	}
	out := make([]float64, count)
	for i := range out {
		switch typ {
		case dtDouble:
			out[i] = math.Float64frombits(d.order.Uint64(data[8*i:]))
		case dtFloat:
			out[i] = float64(math.Float32frombits(d.order.Uint32(data[4*i:])))
		case dtRational:
			num, den := d.order.Uint32(data[8*i:]), d.order.Uint32(data[8*i+4:])
			if den != 0 {
				out[i] = float64(num) / float64(den)
			}
		default:
			ints := d.uints(tag)
			if ints == nil {
				return nil
			}
			out[i] = float64(ints[i])
		}
	}
	return out
}

func (d *ifd) ascii(tag uint16) string {
	typ, count, data, ok := d.raw(tag)
	if !ok || typ != dtASCII {
		return ""
	}
	return strings.TrimRight(string(data[:count]), "\x00")
}
