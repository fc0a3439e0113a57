package profile

import "testing"

func TestGetReference(t *testing.T) {
	p := Get("reference")
	if got := p.RedGroup().String(); got != "red=1-4" {
		t.Errorf("red: got %q", got)
	}
	if got := p.NirGroup().String(); got != "nir=5-10" {
		t.Errorf("nir: got %q", got)
	}
	if w, h := p.Box(640, 480); w != 640 || h != 480 {
		t.Errorf("box: got %dx%d, want native 640x480", w, h)
	}
}

func TestGetFallback(t *testing.T) {
	p := Get("modis")
	if p.Name != "modis" {
		t.Errorf("name: got %q, want requested name", p.Name)
	}
	if len(p.Red) != 1 || p.Red[0].First != 1 || p.Red[0].Last != 4 {
		t.Errorf("fallback red: got %v", p.Red)
	}
	if Known("modis") {
		t.Error("modis reported as known")
	}
}

func TestSentinel2Box(t *testing.T) {
	p := Get("sentinel2")
	if w, h := p.Box(10980, 10980); w != 1024 || h != 1024 {
		t.Errorf("box: got %dx%d", w, h)
	}
	if got := p.NirGroup().Indices(); len(got) != 1 || got[0] != 8 {
		t.Errorf("nir indices: got %v", got)
	}
}

func TestNames(t *testing.T) {
	got := Names()
	want := []string{"landsat8", "reference", "sentinel2"}
	if len(got) != len(want) {
		t.Fatalf("names: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}
