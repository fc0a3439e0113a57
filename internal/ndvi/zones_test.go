package ndvi

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestZones(t *testing.T) {
	const n = 400
	data := make([]float64, n)
	for i := range data {
		jitter := float64(i%7) * 0.005
		switch {
		case i < n/2:
			data[i] = -0.8 + jitter
		case i < 3*n/4:
			data[i] = 0.1 + jitter
		default:
			data[i] = 0.8 + jitter
		}
	}
	data[0] = math.NaN()

	zones, err := Zones(mat.NewDense(20, 20, data), 3)
	if err != nil {
		t.Fatalf("zones: %v", err)
	}
	if len(zones) == 0 || len(zones) > 3 {
		t.Fatalf("zones: got %d", len(zones))
	}
	var share float64
	for i, z := range zones {
		share += z.Share
		if i > 0 && z.Center < zones[i-1].Center {
			t.Errorf("zones not ordered: %v", zones)
		}
		if z.Min > z.Center || z.Max < z.Center {
			t.Errorf("zone %d: center %v outside [%v,%v]", i, z.Center, z.Min, z.Max)
		}
	}
	if math.Abs(share-1) > 1e-9 {
		t.Errorf("shares sum: got %v, want 1", share)
	}
	if zones[0].Center > -0.7 {
		t.Errorf("lowest center: got %v", zones[0].Center)
	}
	if zones[len(zones)-1].Center < 0.4 {
		t.Errorf("highest center: got %v", zones[len(zones)-1].Center)
	}
	if len(zones) == 3 && zones[2].Label != "vegetation" {
		t.Errorf("label: got %q", zones[2].Label)
	}
}

func TestZonesDegenerate(t *testing.T) {
	cases := []struct {
		name  string
		fill  func(i int) float64
		zones int
	}{
		{"uniform", func(int) float64 { return 0.5 }, 1},
		{"two values", func(i int) float64 { return float64(i % 2) }, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := make([]float64, 400)
			for i := range data {
				data[i] = tc.fill(i)
			}
			zones, err := Zones(mat.NewDense(20, 20, data), 3)
			if err != nil {
				t.Fatalf("zones: %v", err)
			}
			if len(zones) != tc.zones {
				t.Fatalf("zones: got %+v, want %d", zones, tc.zones)
			}
			var share float64
			seen := make(map[float64]bool)
			for _, z := range zones {
				share += z.Share
				if seen[z.Center] {
					t.Errorf("center %v repeated in %+v", z.Center, zones)
				}
				seen[z.Center] = true
			}
			if math.Abs(share-1) > 1e-9 {
				t.Errorf("shares sum: got %v, want 1", share)
			}
		})
	}
}

func TestZonesNoValidPixels(t *testing.T) {
	idx := mat.NewDense(1, 2, []float64{math.NaN(), math.Inf(-1)})
	if _, err := Zones(idx, 3); !errors.Is(err, ErrNoValidPixels) {
		t.Errorf("got %v, want ErrNoValidPixels", err)
	}
}

func TestMakeZoned(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	m := vegetation(4, 4)
	// Left half bare: red equals nir.
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			m.Bands[0].Pix[y*4+x] = 6 * 65535
		}
	}
	a, zones, err := e.MakeZoned(context.Background(), "scene.tif", m, "", 2)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	if a.Source != "scene.tif" {
		t.Errorf("source: got %q", a.Source)
	}
	if len(zones) != 2 {
		t.Fatalf("zones: got %v", zones)
	}
	if math.Abs(zones[0].Center) > 1e-9 || math.Abs(zones[1].Center-1) > 1e-9 {
		t.Errorf("centers: got %v, %v", zones[0].Center, zones[1].Center)
	}
	if zones[0].Share != 0.5 || zones[0].Label != "zone-1" {
		t.Errorf("zone 1: got %+v", zones[0])
	}
}
