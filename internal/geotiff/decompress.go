package geotiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/tiff/lzw"
)

// decompressor inflates one strip or tile. It is not safe for concurrent use.
type decompressor struct {
	scheme Compression
	zstd   *zstd.Decoder
}

func newDecompressor(c Compression) (*decompressor, error) {
	d := &decompressor{scheme: c}
	switch c {
	case CompressionNone, CompressionLZW, CompressionDeflate, CompressionDeflate2, CompressionPackBits:
	case CompressionZSTD:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		d.zstd = dec
	default:
		return nil, fmt.Errorf("compression %d: %w", c, ErrUnsupported)
	}
	return d, nil
}

func (d *decompressor) Close() {
	if d.zstd != nil {
		d.zstd.Close()
	}
}

// decode returns at least want bytes of decompressed block data.
func (d *decompressor) decode(src []byte, want int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch d.scheme {
	case CompressionNone:
		out = src
	case CompressionLZW:
		rc := lzw.NewReader(bytes.NewReader(src), lzw.MSB, 8)
		out, err = readUpTo(rc, want)
		rc.Close()
	case CompressionDeflate, CompressionDeflate2:
		var rc io.ReadCloser
		if rc, err = zlib.NewReader(bytes.NewReader(src)); err == nil {
			out, err = readUpTo(rc, want)
			rc.Close()
		}
	case CompressionPackBits:
		out, err = unpackBits(src, want)
	case CompressionZSTD:
		out, err = d.zstd.DecodeAll(src, make([]byte, 0, want))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", d.scheme, err, ErrCorrupt)
	}
	if len(out) < want {
		return nil, fmt.Errorf("%s block has %d bytes, want %d: %w", d.scheme, len(out), want, ErrCorrupt)
	}
	return out, nil
}

// readUpTo reads until want bytes or EOF. Some writers leave trailing
// garbage after the last code, so reading stops once the block is full.
func readUpTo(r io.Reader, want int) ([]byte, error) {
	buf := make([]byte, want)
	n, err := io.ReadFull(r, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return buf[:n], err
}

func unpackBits(src []byte, want int) ([]byte, error) {
	out := make([]byte, 0, want)
	for i := 0; i < len(src) && len(out) < want; {
		n := int(int8(src[i]))
		i++
		switch {
		case n >= 0:
			if i+n+1 > len(src) {
				return nil, io.ErrUnexpectedEOF
			}
			out = append(out, src[i:i+n+1]...)
			i += n + 1
		case n != -128:
			if i >= len(src) {
				return nil, io.ErrUnexpectedEOF
			}
			for j := 0; j < 1-n; j++ {
				out = append(out, src[i])
			}
			i++
		}
	}
	return out, nil
}
