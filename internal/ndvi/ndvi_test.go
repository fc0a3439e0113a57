package ndvi

import (
	"context"
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"
	"github.com/polochinoc/Small-TIFF-API/internal/palette"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"gonum.org/v1/gonum/mat"
)

func newEngine(t *testing.T, opts Options) (*Engine, *artifact.Store) {
	t.Helper()
	s, err := artifact.NewStore(t.TempDir(), false)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return New(s, nil, opts), s
}

// vegetation builds the reference 10-band layout with red bands at 0 and
// near-infrared bands saturated.
func vegetation(w, h int) *raster.Memory {
	m := raster.NewMemory(w, h, 10, 16)
	for i := 5; i <= 10; i++ {
		m.Fill(i, 65535)
	}
	return m
}

func TestRenderFullVegetation(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	img, applied, err := e.Render(context.Background(), vegetation(5, 4), "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if applied != palette.CustomName {
		t.Errorf("palette: got %q, want custom", applied)
	}
	for i, v := range img.Pix {
		if v != 255 {
			t.Fatalf("pix[%d]: got %d, want 255", i, v)
		}
	}
}

func TestRenderUndefinedIsSentinel(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	img, _, err := e.Render(context.Background(), raster.NewMemory(3, 3, 10, 16), palette.Wedge)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i, v := range img.Pix {
		if v != Sentinel {
			t.Fatalf("pix[%d]: got %d, want %d", i, v, Sentinel)
		}
	}
}

func TestRenderRange(t *testing.T) {
	m := raster.NewMemory(16, 16, 10, 16)
	for bi, b := range m.Bands {
		for j := range b.Pix {
			b.Pix[j] = uint32((j*7919 + bi*40503) % 65536)
		}
	}
	e, _ := newEngine(t, DefaultOptions())
	idx, err := e.Compute(context.Background(), m)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	h, w := idx.Dims()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := idx.At(y, x)
			if !math.IsNaN(v) && (v < -1 || v > 1) {
				t.Fatalf("index (%d,%d): got %v, want within [-1,1]", x, y, v)
			}
		}
	}
	g := Quantize(idx)
	if g.Rect.Dx() != 16 || g.Rect.Dy() != 16 {
		t.Errorf("quantized size: got %v", g.Rect)
	}
}

func TestMissingBandsSkipped(t *testing.T) {
	// Six bands: nir group 5-10 only has 5 and 6.
	m := raster.NewMemory(2, 2, 6, 16)
	m.Fill(1, 1000)
	m.Fill(5, 3000)
	e, _ := newEngine(t, DefaultOptions())
	idx, err := e.Compute(context.Background(), m)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := idx.At(0, 0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("index: got %v, want 0.5", got)
	}
}

func TestCustomBandGroups(t *testing.T) {
	m := raster.NewMemory(1, 1, 8, 16)
	m.Fill(4, 100)
	m.Fill(8, 300)
	e, _ := newEngine(t, Options{
		Red: raster.BandGroup{Name: "red", Ranges: []raster.BandRange{{First: 4, Last: 4}}},
		Nir: raster.BandGroup{Name: "nir", Ranges: []raster.BandRange{{First: 8, Last: 8}}},
	})
	idx, err := e.Compute(context.Background(), m)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := idx.At(0, 0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("index: got %v, want 0.5", got)
	}
}

func TestQuantize(t *testing.T) {
	idx := mat.NewDense(1, 7, []float64{-1, -0.5, 0, 0.5, 1, math.NaN(), math.Inf(1)})
	g := Quantize(idx)
	want := []uint8{0, 64, 128, 192, 255, Sentinel, Sentinel}
	for i := range want {
		if g.Pix[i] != want[i] {
			t.Errorf("pix[%d]: got %d, want %d", i, g.Pix[i], want[i])
		}
	}
}

func TestMakePalettes(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	ctx := context.Background()

	sepia, _, err := e.Render(ctx, vegetation(2, 2), palette.Sepia)
	if err != nil {
		t.Fatal(err)
	}
	custom, _, err := e.Render(ctx, vegetation(2, 2), "")
	if err != nil {
		t.Fatal(err)
	}
	if colorsEqual(sepia.Palette, custom.Palette) {
		t.Error("sepia and default palettes are equal")
	}
	if !colorsEqual(custom.Palette, palette.Custom()) {
		t.Error("default palette differs from the custom palette")
	}
	bogus, applied, err := e.Render(ctx, vegetation(2, 2), "plasma")
	if err != nil {
		t.Fatal(err)
	}
	if applied != palette.CustomName || !colorsEqual(bogus.Palette, palette.Custom()) {
		t.Errorf("unknown name: applied %q", applied)
	}

	a, err := e.Make(ctx, vegetation(2, 2), palette.Sepia)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	if a.Palette != palette.Sepia || a.Slot != artifact.SlotNDVI {
		t.Errorf("artifact: got %+v", a)
	}
}

func colorsEqual(a, b color.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		r1, g1, b1, a1 := a[i].RGBA()
		r2, g2, b2, a2 := b[i].RGBA()
		if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
			return false
		}
	}
	return true
}

func TestMakeStaleFallback(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	ctx := context.Background()

	first, err := e.Make(ctx, vegetation(3, 3), "")
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	got, err := e.Make(ctx, raster.NewMemory(3, 3, 0, 16), palette.Sepia)
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if !got.Stale || got.Hash != first.Hash {
		t.Errorf("fallback: stale=%v hash=%s, want stale copy of %s", got.Stale, got.Hash, first.Hash)
	}
}

func TestMakeStrict(t *testing.T) {
	opts := DefaultOptions()
	opts.Strict = true
	e, _ := newEngine(t, opts)
	if _, err := e.Make(context.Background(), nil, ""); !errors.Is(err, raster.ErrNoInput) {
		t.Errorf("got %v, want ErrNoInput", err)
	}
}
