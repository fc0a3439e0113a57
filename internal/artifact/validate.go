package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/polochinoc/Small-TIFF-API/internal/hasher"
)

// Validate checks a manifest against the files in dir and returns one
// message per problem.
func Validate(m *Manifest, dir string) []string {
	var errs []string

	if m.Version != SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	for slot, a := range m.Artifacts {
		if !slot.Valid() {
			errs = append(errs, fmt.Sprintf("unknown slot %q", slot))
		}
		if a.Slot != slot {
			errs = append(errs, fmt.Sprintf("slot %q: entry names slot %q", slot, a.Slot))
		}
		if a.Width <= 0 || a.Height <= 0 {
			errs = append(errs, fmt.Sprintf("slot %q: invalid dimensions %dx%d", slot, a.Width, a.Height))
		}
		if a.Hash == "" {
			errs = append(errs, fmt.Sprintf("slot %q: missing hash", slot))
		}
		if a.Path == "" {
			errs = append(errs, fmt.Sprintf("slot %q: missing path", slot))
			continue
		}

		full := filepath.Join(dir, a.Path)
		info, err := os.Stat(full)
		if err != nil {
			errs = append(errs, fmt.Sprintf("slot %q: file not found: %s", slot, a.Path))
			continue
		}
		if a.Size > 0 && info.Size() != a.Size {
			errs = append(errs, fmt.Sprintf("slot %q: size mismatch: manifest=%d, disk=%d", slot, a.Size, info.Size()))
		}
		if h, err := hasher.FileHash(full); err == nil && a.Hash != "" && h != a.Hash {
			errs = append(errs, fmt.Sprintf("slot %q: hash mismatch: manifest=%s, disk=%s", slot, a.Hash, h))
		}
	}

	if m.Stats.TotalArtifacts != len(m.Artifacts) {
		errs = append(errs, fmt.Sprintf("stats.total_artifacts mismatch: %d != %d", m.Stats.TotalArtifacts, len(m.Artifacts)))
	}
	return errs
}
