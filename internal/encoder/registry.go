package encoder

import (
	"fmt"
	"strings"
)

// Registry holds the available encoders keyed by format name.
type Registry struct {
	encoders map[string]Encoder
	order    []string
}

// NewRegistry creates a registry with the PNG and JPEG encoders.
func NewRegistry() *Registry {
	r := &Registry{encoders: make(map[string]Encoder)}
	r.Register(&PNGEncoder{})
	r.Register(&JPEGEncoder{})
	return r
}

// Register adds or replaces an encoder.
func (r *Registry) Register(enc Encoder) {
	f := enc.Format()
	if _, ok := r.encoders[f]; !ok {
		r.order = append(r.order, f)
	}
	r.encoders[f] = enc
}

// Get returns an encoder for the given format, or nil if unavailable.
// "jpg" is accepted for "jpeg".
func (r *Registry) Get(format string) Encoder {
	format = strings.ToLower(format)
	if format == "jpg" {
		format = "jpeg"
	}
	return r.encoders[format]
}

// Available returns all registered format names in registration order.
func (r *Registry) Available() []string {
	return append([]string(nil), r.order...)
}

// Resolve picks the encoder for a requested format. Empty requests get PNG.
// Indexed renders need an encoder that keeps the palette, so they fall back
// to PNG when the requested one would flatten it.
func (r *Registry) Resolve(requested string, indexed bool) (Encoder, error) {
	if requested == "" {
		requested = "png"
	}
	enc := r.Get(requested)
	if enc == nil {
		return nil, fmt.Errorf("format %q (have %s): %w", requested, strings.Join(r.order, ", "), ErrUnknownFormat)
	}
	if indexed && !enc.KeepsPalette() {
		if png := r.Get("png"); png != nil {
			return png, nil
		}
	}
	return enc, nil
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	if len(r.order) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(r.order, ", "))
}
