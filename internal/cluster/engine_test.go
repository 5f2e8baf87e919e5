package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markercluster.opengeo.dev/internal/geo"
	"markercluster.opengeo.dev/internal/host"
	"markercluster.opengeo.dev/internal/metrics"
)

func TestEngineNotReadyBeforeAttach(t *testing.T) {
	m := host.NewSimMap()
	r := NewMemoryRenderer()
	markers := markersAround(seattle, 5)

	e := New(m, r, markers, Options{})

	require.False(t, e.Ready())
	assert.Empty(t, e.Clusters(), "clustering must not run before the host surface attaches")
	assert.Len(t, e.Markers(), 5, "markers still accumulate while not ready")

	// Attach fires the first idle notification, which flips the engine
	// ready and runs the first computation.
	m.Attach(seattle, 12, 1024, 768)

	require.True(t, e.Ready())
	require.Len(t, e.Clusters(), 1)
	assert.Equal(t, 5, e.Clusters()[0].Size())
}

func TestEnginePartitionInvariant(t *testing.T) {
	// Every marker inside the viewport belongs to exactly one cluster.
	markers := []*Marker{
		NewMarker("a1", 47.6060, -122.3320),
		NewMarker("a2", 47.6061, -122.3321),
		NewMarker("a3", 47.6062, -122.3322),
		NewMarker("b1", 47.6500, -122.3000),
		NewMarker("b2", 47.6501, -122.3001),
		NewMarker("far", -33.8688, 151.2093), // Sydney, outside viewport
	}

	e, _, _ := newTestEngine(seattle, 12, markers, Options{})

	seen := make(map[*Marker]int)
	total := 0
	for _, c := range e.Clusters() {
		for _, m := range c.Markers() {
			seen[m]++
			total++
		}
	}

	assert.Equal(t, 5, total, "five markers are inside the viewport")
	for m, count := range seen {
		assert.Equal(t, 1, count, "marker %s must belong to exactly one cluster", m.ID)
	}
	assert.NotContains(t, seen, markers[5], "off-viewport marker stays unclustered")
}

func TestEngineIdleIsIncremental(t *testing.T) {
	markers := markersAround(seattle, 4)
	e, m, _ := newTestEngine(seattle, 12, markers, Options{})
	require.Len(t, e.Clusters(), 1)

	before := e.Clusters()[0]

	// A pan that keeps the same viewport population must not rebuild
	// existing clusters.
	m.PanTo(geo.Point{Lat: seattle.Lat + 0.001, Lon: seattle.Lon})

	require.Len(t, e.Clusters(), 1)
	assert.Same(t, before, e.Clusters()[0])
}

func TestEngineZoomChangeResets(t *testing.T) {
	markers := markersAround(seattle, 4)
	e, m, r := newTestEngine(seattle, 12, markers, Options{})
	require.Len(t, e.Clusters(), 1)
	old := e.Clusters()[0]

	m.SetZoom(13)

	require.Len(t, e.Clusters(), 1)
	assert.NotSame(t, old, e.Clusters()[0], "no cluster survives a zoom change")
	_, ok := r.IconState(old)
	assert.False(t, ok, "the old cluster's icon must be detached")
}

func TestEngineZoomChangeResetsAfterLateAttach(t *testing.T) {
	m := host.NewSimMap()
	r := NewMemoryRenderer()
	markers := markersAround(seattle, 4)

	// Built against a detached host: the zoom snapshot taken at
	// construction must not shadow a later change back to that level.
	e := New(m, r, markers, Options{})
	m.Attach(seattle, 12, 1024, 768)
	require.Len(t, e.Clusters(), 1)
	old := e.Clusters()[0]

	m.SetZoom(0)

	require.Len(t, e.Clusters(), 1)
	assert.NotSame(t, old, e.Clusters()[0], "no cluster survives a zoom change")
	_, ok := r.IconState(old)
	assert.False(t, ok, "the old cluster's icon must be detached")
}

func TestEngineSameZoomDoesNotReset(t *testing.T) {
	markers := markersAround(seattle, 4)
	e, m, _ := newTestEngine(seattle, 12, markers, Options{})
	old := e.Clusters()[0]

	// Pan fires idle but no zoom change; partition must be stable.
	m.PanTo(seattle)
	assert.Same(t, old, e.Clusters()[0])
}

func TestEngineAddMarkersSuppressedRecompute(t *testing.T) {
	e, _, _ := newTestEngine(seattle, 12, nil, Options{})
	require.Empty(t, e.Clusters())

	e.AddMarkers(markersAround(seattle, 3), true)
	assert.Empty(t, e.Clusters(), "bulk load with suppressed recompute leaves clusters untouched")

	e.Redraw()
	require.Len(t, e.Clusters(), 1)
	assert.Equal(t, 3, e.Clusters()[0].Size())
}

func TestEngineRemoveMarker(t *testing.T) {
	markers := markersAround(seattle, 3)
	e, _, _ := newTestEngine(seattle, 12, markers, Options{})

	t.Run("UnknownMarker", func(t *testing.T) {
		stranger := NewMarker("stranger", 1, 1)
		assert.False(t, e.RemoveMarker(stranger, false))
	})

	t.Run("KnownMarker", func(t *testing.T) {
		require.True(t, e.RemoveMarker(markers[1], false))
		assert.Len(t, e.Markers(), 2)

		// Removal resets and recomputes the whole viewport.
		require.Len(t, e.Clusters(), 1)
		c := e.Clusters()[0]
		assert.Equal(t, 2, c.Size())
		assert.False(t, c.HasMarker(markers[1]))
	})

	t.Run("Batch", func(t *testing.T) {
		require.True(t, e.RemoveMarkers(markers[:1], false))
		assert.Len(t, e.Markers(), 1)
		assert.False(t, e.RemoveMarkers([]*Marker{NewMarker("x", 2, 2)}, false))
	})
}

func TestEngineResetViewport(t *testing.T) {
	markers := markersAround(seattle, 3)
	e, _, r := newTestEngine(seattle, 12, markers, Options{})
	require.NotEmpty(t, e.Clusters())

	e.ResetViewport(true)

	assert.Empty(t, e.Clusters())
	for _, m := range markers {
		_, attached := r.MarkerVisible(m)
		assert.False(t, attached, "hideMarkers must detach every marker")
	}
}

func TestEngineRepaintOrdering(t *testing.T) {
	markers := markersAround(seattle, 3)
	e, m, r := newTestEngine(seattle, 12, markers, Options{})
	require.Len(t, e.Clusters(), 1)
	old := e.Clusters()[0]

	r.ResetEvents()
	e.Repaint()

	// The new partition exists and is drawn before the old icons go away.
	require.Len(t, e.Clusters(), 1)
	fresh := e.Clusters()[0]
	require.NotSame(t, old, fresh)

	_, ok := r.IconState(fresh)
	require.True(t, ok, "new aggregate icon attached during repaint")
	_, ok = r.IconState(old)
	require.True(t, ok, "old aggregate icon still attached until the deferred disposal runs")

	m.Flush()

	_, ok = r.IconState(old)
	assert.False(t, ok, "deferred disposal detaches the old icon")

	var newIconAt, oldRemoveAt int
	for i, ev := range r.Events() {
		if ev.Kind == "icon:update" && ev.Cluster == fresh && newIconAt == 0 {
			newIconAt = i + 1
		}
		if ev.Kind == "icon:remove" && ev.Cluster == old {
			oldRemoveAt = i + 1
		}
	}
	require.NotZero(t, newIconAt)
	require.NotZero(t, oldRemoveAt)
	assert.Less(t, newIconAt, oldRemoveAt, "new icons attach before old icons detach")
}

func TestEngineDragEndReassigns(t *testing.T) {
	dragged := NewMarker("draggable", seattle.Lat, seattle.Lon)
	dragged.Draggable = true
	markers := append(markersAround(seattle, 2), dragged)

	e, m, _ := newTestEngine(seattle, 12, markers, Options{})
	require.Len(t, e.Clusters(), 1)
	require.Equal(t, 3, e.Clusters()[0].Size())

	// The host moved the marker; its old assignment is now stale.
	dragged.Position = geo.Point{Lat: seattle.Lat + 0.02, Lon: seattle.Lon + 0.02}
	m.EndMarkerDrag("draggable")

	require.Len(t, e.Clusters(), 2, "dragged marker lands in its own cluster")
	total := 0
	for _, c := range e.Clusters() {
		total += c.Size()
	}
	assert.Equal(t, 3, total)
}

func TestEngineActivateCluster(t *testing.T) {
	markers := markersAround(seattle, 3)
	e, m, _ := newTestEngine(seattle, 4, markers, Options{})
	require.Len(t, e.Clusters(), 1)
	c := e.Clusters()[0]

	var gotBounds geo.BoundingBox
	var gotEvent host.InputEvent
	e.opts.OnClusterActivated = func(_ *Cluster, b geo.BoundingBox, ev host.InputEvent) {
		gotBounds = b
		gotEvent = ev
	}

	e.ActivateCluster(c, host.InputEvent{Type: "click", X: 10, Y: 20})

	assert.Equal(t, c.Bounds(), gotBounds)
	assert.Equal(t, "click", gotEvent.Type)
	assert.Greater(t, m.Zoom(), 4, "zoom-on-click fits the viewport to the cluster")

	t.Run("Disabled", func(t *testing.T) {
		e2, m2, _ := newTestEngine(seattle, 4, markersAround(seattle, 3), Options{NoZoomOnClick: true})
		c2 := e2.Clusters()[0]
		e2.ActivateCluster(c2, host.InputEvent{Type: "click"})
		assert.Equal(t, 4, m2.Zoom())
	})
}

func TestEngineFitMapToMarkers(t *testing.T) {
	t.Run("NoMarkers", func(t *testing.T) {
		e, _, _ := newTestEngine(seattle, 12, nil, Options{})
		assert.Error(t, e.FitMapToMarkers())
	})

	t.Run("FitsAll", func(t *testing.T) {
		markers := []*Marker{
			NewMarker("a", 47.60, -122.33),
			NewMarker("b", 47.70, -122.20),
		}
		e, m, _ := newTestEngine(seattle, 2, markers, Options{})

		require.NoError(t, e.FitMapToMarkers())
		b := m.ViewportBounds()
		for _, mk := range markers {
			assert.True(t, b.ContainsPoint(mk.Position))
		}
	})
}

func TestEngineClose(t *testing.T) {
	markers := markersAround(seattle, 3)
	e, m, _ := newTestEngine(seattle, 12, markers, Options{})
	require.Len(t, e.Clusters(), 1)

	e.Close()

	// Events no longer reach the engine.
	m.SetZoom(13)
	assert.Len(t, e.Clusters(), 1, "closed engine ignores host notifications")
}

func TestEngineDistantMarkersNeverShareACluster(t *testing.T) {
	markers := []*Marker{
		NewMarker("north", 60, 60),
		NewMarker("south", -60, -60),
	}

	// Whole-world viewport, tiny grid: the distance test finds a nearest
	// cluster but containment rejects it.
	e, _, _ := newTestEngine(geo.Point{Lat: 0, Lon: 0.0001}, 0, markers, Options{GridSize: 10})

	require.Len(t, e.Clusters(), 2)
	for _, c := range e.Clusters() {
		assert.Equal(t, 1, c.Size())
	}
}

func TestEngineMetrics(t *testing.T) {
	markers := markersAround(seattle, 5)

	// A unique engine name keeps the shared metric vectors deterministic
	// across tests in this package.
	e, m, _ := newTestEngine(seattle, 12, markers, Options{Name: "metrics-test"})
	labels := map[string]string{"engine": "metrics-test"}

	tracked, err := metrics.GaugeValue(metrics.TrackedMarkers, labels)
	require.NoError(t, err)
	assert.Equal(t, float64(5), tracked)

	active, err := metrics.GaugeValue(metrics.ActiveClusters, labels)
	require.NoError(t, err)
	assert.Equal(t, float64(1), active)

	before, err := metrics.CounterValue(metrics.Recomputes, labels)
	require.NoError(t, err)

	// Idle runs another recomputation pass even when the partition is
	// already settled.
	m.PanTo(seattle)

	after, err := metrics.CounterValue(metrics.Recomputes, labels)
	require.NoError(t, err)
	assert.Greater(t, after, before)

	require.True(t, e.RemoveMarker(markers[0], true))
	tracked, err = metrics.GaugeValue(metrics.TrackedMarkers, labels)
	require.NoError(t, err)
	assert.Equal(t, float64(4), tracked)
}
