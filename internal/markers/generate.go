package markers

import (
	"math/rand"

	"github.com/google/uuid"
	"markercluster.opengeo.dev/internal/cluster"
	"markercluster.opengeo.dev/internal/geo"
)

// Generate returns n markers uniformly spread over the given bounding
// box, each with a fresh UUID. Used by demos and benchmarks when no real
// marker source is configured.
func Generate(n int, bounds geo.BoundingBox) []*cluster.Marker {
	markers := make([]*cluster.Marker, n)
	for i := 0; i < n; i++ {
		lat := bounds.MinLat + rand.Float64()*(bounds.MaxLat-bounds.MinLat)
		lon := bounds.MinLon + rand.Float64()*(bounds.MaxLon-bounds.MinLon)
		markers[i] = cluster.NewMarker(uuid.NewString(), lat, lon)
	}
	return markers
}
