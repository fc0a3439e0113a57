package raster

import (
	"errors"
	"testing"
)

func TestParseRanges(t *testing.T) {
	got, err := ParseRanges("1-4, 6,8-9")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []BandRange{{1, 4}, {6, 6}, {8, 9}}
	if len(got) != len(want) {
		t.Fatalf("ranges: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseRanges_Invalid(t *testing.T) {
	for _, s := range []string{"", "0", "4-1", "a-b", "3-x", ","} {
		if _, err := ParseRanges(s); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("ParseRanges(%q): got %v, want ErrInvalidRange", s, err)
		}
	}
}

func TestBandGroupSplit(t *testing.T) {
	g := BandGroup{Name: "nir", Ranges: []BandRange{{5, 10}}}
	present, missing := g.Split(7)
	if len(present) != 3 || present[0] != 5 || present[2] != 7 {
		t.Errorf("present: got %v", present)
	}
	if len(missing) != 3 || missing[0] != 8 {
		t.Errorf("missing: got %v", missing)
	}
	if s := g.String(); s != "nir=5-10" {
		t.Errorf("string: got %q", s)
	}
}

func TestMemoryReadBand(t *testing.T) {
	m := NewMemory(3, 2, 2, 16)
	m.Fill(2, 7)
	b, err := m.ReadBand(2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if b.At(2, 1) != 7 {
		t.Errorf("sample: got %d, want 7", b.At(2, 1))
	}
	if _, err := m.ReadBand(0); !errors.Is(err, ErrBandIndex) {
		t.Errorf("band 0: got %v", err)
	}
	if _, err := m.ReadBand(3); !errors.Is(err, ErrBandIndex) {
		t.Errorf("band 3: got %v", err)
	}
	if _, ok := m.CRS(); ok {
		t.Error("memory raster without code reported a CRS")
	}
}

func TestGeoTransformBounds(t *testing.T) {
	gt := GeoTransform{A: 10, C: 500000, E: -10, F: 4000000}
	b := gt.Bounds(100, 50)
	want := Bounds{MinX: 500000, MinY: 3999500, MaxX: 501000, MaxY: 4000000}
	if b != want {
		t.Errorf("bounds: got %+v, want %+v", b, want)
	}

	// Identity transform keeps rasterio's flipped y extent.
	b = Identity.Bounds(4, 3)
	if b.MinY != 3 || b.MaxY != 0 || b.MaxX != 4 {
		t.Errorf("identity bounds: got %+v", b)
	}
}

func TestGeoTransformBounds_Rotated(t *testing.T) {
	gt := GeoTransform{A: 1, B: 1, C: 0, D: -1, E: 1, F: 0}
	b := gt.Bounds(2, 2)
	if b.MinX != 0 || b.MaxX != 4 || b.MinY != -2 || b.MaxY != 2 {
		t.Errorf("rotated bounds: got %+v", b)
	}
}

func TestUsable(t *testing.T) {
	if err := Usable(nil); !errors.Is(err, ErrNoInput) {
		t.Errorf("nil: got %v", err)
	}
	if err := Usable(NewMemory(2, 2, 0, 16)); !errors.Is(err, ErrNoBands) {
		t.Errorf("zero bands: got %v", err)
	}
	if err := Usable(NewMemory(0, 5, 1, 16)); !errors.Is(err, ErrEmpty) {
		t.Errorf("zero width: got %v", err)
	}
	if err := Usable(NewMemory(2, 2, 1, 16)); err != nil {
		t.Errorf("one band: got %v", err)
	}
}
