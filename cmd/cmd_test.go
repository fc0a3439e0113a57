package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"
	"github.com/polochinoc/Small-TIFF-API/internal/geotiff"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"
)

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	m := raster.NewMemory(24, 12, 10, 16)
	for i, b := range m.Bands {
		for j := range b.Pix {
			b.Pix[j] = uint32((j*613 + i*2749) % 65536)
		}
	}
	path := filepath.Join(dir, "scene.tif")
	if err := geotiff.WriteFile(path, m, geotiff.EncodeOptions{EPSG: 32631}); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestRenderCommands(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "img")
	tif := writeFixture(t, dir)

	if err := run(t, "--out", out, "thumbnail", "--width", "12", tif); err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if err := run(t, "--out", out, "ndvi", "--palette", "sepia", "--zones", "2", tif); err != nil {
		t.Fatalf("ndvi: %v", err)
	}
	for _, name := range []string{"thumbnail.png", "ndvi.png", artifact.ManifestName} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if err := run(t, "--out", out, "status"); err != nil {
		t.Errorf("status: %v", err)
	}
}

func TestProfileOverride(t *testing.T) {
	t.Cleanup(func() { redBands, nirBands, profileName = "", "", "reference" })
	profileName, redBands, nirBands = "sentinel2", "3", "7-8"
	p, err := activeProfile()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.RedGroup().String() != "red=3" || p.NirGroup().String() != "nir=7-8" {
		t.Errorf("groups: got %s %s", p.RedGroup(), p.NirGroup())
	}

	redBands = "x"
	if _, err := activeProfile(); err == nil {
		t.Error("invalid --red accepted")
	}
}
