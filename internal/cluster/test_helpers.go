package cluster

import (
	"fmt"
	"log/slog"
	"os"

	"markercluster.opengeo.dev/internal/geo"
	"markercluster.opengeo.dev/internal/host"
)

// newTestEngine wires an engine to an attached SimMap and a MemoryRenderer
// centered on the given point. Shared by tests across this package.
func newTestEngine(center geo.Point, zoom int, markers []*Marker, opts Options) (*Engine, *host.SimMap, *MemoryRenderer) {
	m := host.NewSimMap()
	r := NewMemoryRenderer()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	}

	m.Attach(center, zoom, 1024, 768)
	e := New(m, r, markers, opts)
	return e, m, r
}

// markersAround builds n markers spread in a tight line east of the given
// point, all within a few meters of each other.
func markersAround(p geo.Point, n int) []*Marker {
	markers := make([]*Marker, 0, n)
	for i := 0; i < n; i++ {
		markers = append(markers, NewMarker(
			fmt.Sprintf("m-%d", i),
			p.Lat,
			p.Lon+float64(i)*0.0001,
		))
	}
	return markers
}
