package ndvi

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultZones separates water, bare land and vegetation.
const DefaultZones = 3

// maxZoneSamples bounds the observations handed to k-means.
const maxZoneSamples = 12000

var ErrNoValidPixels = errors.New("no pixel with a defined index")

// Zone is one cluster of index values.
type Zone struct {
	Label  string  `json:"label"`
	Center float64 `json:"center"` // index units, [-1,1]
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Share  float64 `json:"share"` // fraction of sampled valid pixels
}

var zoneLabels = []string{"water", "bare", "vegetation"}

// Zones clusters the defined cells of idx into at most k groups ordered by
// ascending center. Large rasters are subsampled on a regular grid.
func Zones(idx *mat.Dense, k int) ([]Zone, error) {
	if k <= 0 {
		k = DefaultZones
	}
	h, w := idx.Dims()
	step := 1
	if w*h > maxZoneSamples {
		step = int(math.Sqrt(float64(w*h)/float64(maxZoneSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(w*h, maxZoneSamples))
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			v := idx.At(y, x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{v})
		}
	}
	if len(dataset) == 0 {
		return nil, ErrNoValidPixels
	}

	cc, err := kmeans.New().Partition(dataset, distinct(dataset, k))
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}

	// Partition can leave an observation in two clusters when it refills an
	// empty one, so membership is rebuilt from the final centers.
	centers := make(clusters.Clusters, 0, len(cc))
	for _, c := range cc {
		if !slices.ContainsFunc(centers, func(o clusters.Cluster) bool {
			return o.Center[0] == c.Center[0]
		}) {
			centers = append(centers, clusters.Cluster{Center: c.Center})
		}
	}
	members := make([][]float64, len(centers))
	for _, o := range dataset {
		i := centers.Nearest(o)
		members[i] = append(members[i], o.Coordinates()[0])
	}

	zones := make([]Zone, 0, len(centers))
	for _, vals := range members {
		if len(vals) == 0 {
			continue
		}
		zones = append(zones, Zone{
			Center: stat.Mean(vals, nil),
			Min:    slices.Min(vals),
			Max:    slices.Max(vals),
			Share:  float64(len(vals)) / float64(len(dataset)),
		})
	}
	slices.SortFunc(zones, func(a, b Zone) int {
		switch {
		case a.Center < b.Center:
			return -1
		case a.Center > b.Center:
			return 1
		}
		return 0
	})
	for i := range zones {
		if len(zones) == len(zoneLabels) {
			zones[i].Label = zoneLabels[i]
		} else {
			zones[i].Label = fmt.Sprintf("zone-%d", i+1)
		}
	}
	return zones, nil
}

// distinct counts the different values in obs, stopping at limit.
func distinct(obs clusters.Observations, limit int) int {
	seen := make(map[float64]struct{}, limit)
	for _, o := range obs {
		seen[o.Coordinates()[0]] = struct{}{}
		if len(seen) >= limit {
			break
		}
	}
	return len(seen)
}
