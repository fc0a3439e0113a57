package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Version:   SupportedManifestVersion,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Artifacts: make(map[Slot]Artifact),
	}
}

// ComputeStats recalculates aggregate statistics from artifacts.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalArtifacts = len(m.Artifacts)
	for _, a := range m.Artifacts {
		s.TotalBytes += a.Size
	}
	m.Stats = s
}

// WriteJSON serializes the manifest atomically.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeAtomic(path, data)
}

// ReadJSON loads a manifest. A missing file yields an empty manifest.
func ReadJSON(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Artifacts == nil {
		m.Artifacts = make(map[Slot]Artifact)
	}
	return &m, nil
}
