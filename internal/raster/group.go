package raster

import (
	"fmt"
	"strconv"
	"strings"
)

// BandRange is an inclusive, 1-based range of band indices.
type BandRange struct {
	First int
	Last  int
}

func (r BandRange) String() string {
	if r.First == r.Last {
		return strconv.Itoa(r.First)
	}
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// BandGroup names an ordered set of band ranges forming one logical channel.
type BandGroup struct {
	Name   string
	Ranges []BandRange
}

// Indices expands the group into band indices in order.
func (g BandGroup) Indices() []int {
	var out []int
	for _, r := range g.Ranges {
		for i := r.First; i <= r.Last; i++ {
			out = append(out, i)
		}
	}
	return out
}

// Split separates the group indices into those present in a raster with n
// bands and those beyond it.
func (g BandGroup) Split(n int) (present, missing []int) {
	for _, i := range g.Indices() {
		if i <= n {
			present = append(present, i)
		} else {
			missing = append(missing, i)
		}
	}
	return
}

func (g BandGroup) String() string {
	parts := make([]string, len(g.Ranges))
	for i, r := range g.Ranges {
		parts[i] = r.String()
	}
	return g.Name + "=" + strings.Join(parts, ",")
}

// ParseRanges parses a list such as "1-4", "4,8" or "1-3,5".
func ParseRanges(s string) ([]BandRange, error) {
	var out []BandRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("parse band %q: %w", part, ErrInvalidRange)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("parse band %q: %w", part, ErrInvalidRange)
			}
		}
		if first < 1 || last < first {
			return nil, fmt.Errorf("band range %q: %w", part, ErrInvalidRange)
		}
		out = append(out, BandRange{First: first, Last: last})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty band list %q: %w", s, ErrInvalidRange)
	}
	return out, nil
}
