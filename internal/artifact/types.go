package artifact

// Slot names a persisted output location.
type Slot string

const (
	SlotThumbnail Slot = "thumbnail"
	SlotNDVI      Slot = "ndvi"
)

// Slots lists the known slots.
var Slots = []Slot{SlotThumbnail, SlotNDVI}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	for _, k := range Slots {
		if k == s {
			return true
		}
	}
	return false
}

// Manifest records the latest artifact written to each slot.
type Manifest struct {
	Version   int               `json:"version"`
	UpdatedAt string            `json:"updated_at"`
	Artifacts map[Slot]Artifact `json:"artifacts"`
	Stats     Stats             `json:"stats"`
}

// Artifact describes one rendered file.
type Artifact struct {
	Slot        Slot   `json:"slot"`
	Path        string `json:"path"` // relative to the store directory
	Format      string `json:"format"`
	MediaType   string `json:"media_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`                     // xxhash64, 16 hex chars
	Dominant    string `json:"dominant_color,omitempty"` // #rrggbb
	Source      string `json:"source,omitempty"`         // input raster name
	Palette     string `json:"palette,omitempty"`
	GeneratedAt string `json:"generated_at"`

	// Stale marks an artifact served from a previous run because the
	// current input could not be rendered.
	Stale bool   `json:"-"`
	Data  []byte `json:"-"`
}

// Stats aggregates manifest contents.
type Stats struct {
	TotalArtifacts int   `json:"total_artifacts"`
	TotalBytes     int64 `json:"total_bytes"`
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// ManifestName is the manifest file name inside the store directory.
const ManifestName = "render.manifest.json"
