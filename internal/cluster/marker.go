package cluster

import "markercluster.opengeo.dev/internal/geo"

// Marker is a single geographic point entity. Markers are owned by the
// caller, not by the engine: the engine only references them and keeps its
// own bookkeeping (assignment state, drag subscriptions) in side tables
// keyed by marker identity.
type Marker struct {
	ID        string    `json:"id"`
	Position  geo.Point `json:"position"`
	Draggable bool      `json:"draggable,omitempty"`
}

// NewMarker creates a marker at the given position.
func NewMarker(id string, lat, lon float64) *Marker {
	return &Marker{
		ID:       id,
		Position: geo.Point{Lat: lat, Lon: lon},
	}
}
