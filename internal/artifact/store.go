// Package artifact persists rendered images into named output slots and
// keeps a manifest of the latest file in each slot.
package artifact

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/polochinoc/Small-TIFF-API/internal/encoder"
	"github.com/polochinoc/Small-TIFF-API/internal/hasher"
	"github.com/polochinoc/Small-TIFF-API/internal/log"

	"github.com/cenkalti/dominantcolor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDir is the output directory used when none is configured.
const DefaultDir = "img"

// Store writes artifacts under Dir. By default each slot has one fixed file
// (thumbnail.png, ndvi.png) overwritten on every write; with Unique set
// every write gets its own uuid-named file and the manifest points at the
// latest one.
type Store struct {
	Dir    string
	Unique bool

	locks sync.Map // Slot -> *sync.Mutex
	mu    sync.Mutex
}

// NewStore creates the directory if needed.
func NewStore(dir string, unique bool) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{Dir: dir, Unique: unique}, nil
}

// FixedPath is the shared path of a slot for the given extension.
func (s *Store) FixedPath(slot Slot, ext string) string {
	return filepath.Join(s.Dir, string(slot)+"."+ext)
}

func (s *Store) slotLock(slot Slot) *sync.Mutex {
	l, _ := s.locks.LoadOrStore(slot, new(sync.Mutex))
	return l.(*sync.Mutex)
}

// Meta carries the descriptive fields recorded with an artifact.
type Meta struct {
	Source  string
	Palette string
	Quality int
}

// Write encodes img with enc and stores it in slot.
func (s *Store) Write(slot Slot, img image.Image, enc encoder.Encoder, meta Meta) (*Artifact, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("write %q: %w", slot, ErrUnknownSlot)
	}
	data, err := enc.Encode(img, meta.Quality)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc.Format(), err)
	}

	name := string(slot) + "." + enc.Extension()
	if s.Unique {
		name = fmt.Sprintf("%s-%s.%s", slot, uuid.NewString(), enc.Extension())
	}
	b := img.Bounds()
	a := &Artifact{
		Slot:        slot,
		Path:        name,
		Format:      enc.Format(),
		MediaType:   enc.MediaType(),
		Width:       b.Dx(),
		Height:      b.Dy(),
		Size:        int64(len(data)),
		Hash:        hasher.ContentHash(data, hasher.HexLen),
		Dominant:    dominantHex(img),
		Source:      meta.Source,
		Palette:     meta.Palette,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Data:        data,
	}

	lock := s.slotLock(slot)
	lock.Lock()
	defer lock.Unlock()

	if err := writeAtomic(filepath.Join(s.Dir, name), data); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	if err := s.record(*a); err != nil {
		return nil, err
	}
	log.Info("artifact: written",
		zap.String("slot", string(slot)), zap.String("path", name),
		zap.Int("width", a.Width), zap.Int("height", a.Height), zap.String("hash", a.Hash))
	return a, nil
}

// Latest returns the current artifact of a slot with its bytes, marked
// stale. It prefers the manifest entry and falls back to the fixed PNG path
// for directories written without a manifest.
func (s *Store) Latest(slot Slot) (*Artifact, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("read %q: %w", slot, ErrUnknownSlot)
	}
	lock := s.slotLock(slot)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.Manifest()
	if err != nil {
		return nil, err
	}
	a, ok := m.Artifacts[slot]
	if !ok {
		a = Artifact{Slot: slot, Path: string(slot) + ".png", Format: "png", MediaType: "image/png"}
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, a.Path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("slot %s: %w", slot, ErrNoArtifact)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.Path, err)
	}
	a.Data = data
	a.Size = int64(len(data))
	a.Hash = hasher.ContentHash(data, hasher.HexLen)
	a.Stale = true
	return &a, nil
}

// Manifest loads the store manifest.
func (s *Store) Manifest() (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReadJSON(filepath.Join(s.Dir, ManifestName))
}

func (s *Store) record(a Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := filepath.Join(s.Dir, ManifestName)
	m, err := ReadJSON(path)
	if err != nil {
		return err
	}
	m.Artifacts[a.Slot] = a
	m.UpdatedAt = a.GeneratedAt
	if err := WriteJSON(m, path); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func dominantHex(img image.Image) string {
	b := img.Bounds()
	if b.Empty() {
		return ""
	}
	c := dominantcolor.FindWeight(img, 1)
	if len(c) == 0 {
		return ""
	}
	return dominantcolor.Hex(c[0].RGBA)
}

// writeAtomic writes data to a temp file beside path and renames it over
// path, so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
