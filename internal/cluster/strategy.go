package cluster

import (
	"github.com/golang/geo/s2"

	"markercluster.opengeo.dev/internal/geo"
)

// AssignmentStrategy places one marker into the engine's cluster set:
// either by adding it to an existing cluster or by creating a new one via
// e.NewCluster(). A strategy must never leave the marker unassigned.
type AssignmentStrategy interface {
	Assign(m *Marker, e *Engine)
}

// AssignFunc adapts a plain function to AssignmentStrategy.
type AssignFunc func(m *Marker, e *Engine)

func (f AssignFunc) Assign(m *Marker, e *Engine) { f(m, e) }

// maxAssignDistanceKm initializes the running minimum above any possible
// great-circle distance on Earth (circumference ~40,075 km, so no two
// points are more than ~20,038 km apart).
const maxAssignDistanceKm = 40000

// DefaultStrategy joins the nearest cluster by great-circle distance,
// provided the marker also falls inside that cluster's padded bounds.
// Proximity alone is not enough: pixel-space padding is non-uniform
// across latitudes, so the nearest center can still belong to a cluster
// whose acceptance region excludes the marker. Ties go to the first
// cluster scanned, which keeps assignment deterministic for a given
// insertion order.
var DefaultStrategy AssignmentStrategy = AssignFunc(assignToNearest)

func assignToNearest(m *Marker, e *Engine) {
	distance := float64(maxAssignDistanceKm)
	var nearest *Cluster

	for _, c := range e.Clusters() {
		center, ok := c.Center()
		if !ok {
			continue
		}
		d := geo.HaversineDistance(center, m.Position)
		if d < distance {
			distance = d
			nearest = c
		}
	}

	if nearest != nil && nearest.InBounds(m) {
		nearest.AddMarker(m)
		return
	}

	e.NewCluster().AddMarker(m)
}

// defaultCellLevel is roughly 600m of spatial resolution.
const defaultCellLevel = 10

// S2CellStrategy groups markers by the S2 cell containing them at the
// configured level: a marker joins the first cluster whose center shares
// its cell, else starts a new one. Cell membership is evaluated against
// the current center, so this strategy pairs naturally with FixedCenter
// mode, where centers cannot drift between cells as members join.
type S2CellStrategy struct {
	// Level of the S2 cell hierarchy to bucket by. Zero or negative
	// selects level 10.
	Level int
}

func (s S2CellStrategy) Assign(m *Marker, e *Engine) {
	level := s.Level
	if level <= 0 {
		level = defaultCellLevel
	}

	key := cellAt(m.Position, level)
	for _, c := range e.Clusters() {
		center, ok := c.Center()
		if ok && cellAt(center, level) == key {
			c.AddMarker(m)
			return
		}
	}

	e.NewCluster().AddMarker(m)
}

func cellAt(p geo.Point, level int) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)).Parent(level)
}
