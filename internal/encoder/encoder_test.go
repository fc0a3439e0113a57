package encoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestResolve(t *testing.T) {
	r := NewRegistry()
	enc, err := r.Resolve("", false)
	if err != nil || enc.Format() != "png" {
		t.Fatalf("default: got %v, %v", enc, err)
	}
	enc, err = r.Resolve("JPG", false)
	if err != nil || enc.Format() != "jpeg" {
		t.Fatalf("jpg: got %v, %v", enc, err)
	}
	enc, err = r.Resolve("jpeg", true)
	if err != nil || enc.Format() != "png" {
		t.Errorf("indexed jpeg: got %v, %v, want png", enc, err)
	}
	if _, err := r.Resolve("webp", false); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("webp: got %v, want ErrUnknownFormat", err)
	}
	if got := r.String(); got != "encoders: png, jpeg" {
		t.Errorf("string: got %q", got)
	}
}

func TestPNGKeepsPalette(t *testing.T) {
	pal := color.Palette{color.RGBA{10, 20, 30, 255}, color.RGBA{200, 100, 0, 255}}
	img := image.NewPaletted(image.Rect(0, 0, 3, 3), pal)
	img.SetColorIndex(2, 2, 1)

	data, err := (&PNGEncoder{}).Encode(img, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, ok := dec.(*image.Paletted)
	if !ok {
		t.Fatalf("decoded %T, want *image.Paletted", dec)
	}
	if p.ColorIndexAt(2, 2) != 1 || p.Palette[1] != pal[1] {
		t.Errorf("palette entry: got %v at index %d", p.Palette[1], p.ColorIndexAt(2, 2))
	}
}

func TestJPEGEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	data, err := (&JPEGEncoder{}).Encode(img, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if format != "jpeg" || cfg.Width != 16 {
		t.Errorf("got %s %dx%d", format, cfg.Width, cfg.Height)
	}
}
