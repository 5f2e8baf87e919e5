package cluster

import (
	"fmt"
	"log/slog"
	"time"

	"markercluster.opengeo.dev/internal/geo"
	"markercluster.opengeo.dev/internal/host"
	"markercluster.opengeo.dev/internal/metrics"
)

// Engine owns the marker set and the cluster partition. It reacts to
// viewport and zoom changes from the host map and keeps the partition
// consistent as markers are added, removed, or dragged.
//
// The engine is single-threaded by design: all mutation happens in
// response to host notifications or direct method calls, and no two
// notifications are processed concurrently. It is not safe for concurrent
// use; callers that share an engine across goroutines must serialize
// access themselves.
type Engine struct {
	host     host.Map
	renderer Renderer
	opts     Options
	logger   *slog.Logger

	markers  []*Marker
	clusters []*Cluster

	// assigned tracks which markers are already placed in a cluster
	// during the current pass. Markers are externally owned, so the flag
	// lives here rather than on the marker.
	assigned map[*Marker]bool
	dragSubs map[*Marker]host.Subscription
	subs     []host.Subscription

	ready        bool
	previousZoom int
	clusterSeq   int
}

// New creates an engine bound to a host map and a renderer, seeds it with
// the given markers, and subscribes to the host's idle and zoom-changed
// notifications. If the host surface is already attached the first
// cluster computation runs immediately; otherwise it runs on the first
// idle notification after attach.
func New(h host.Map, r Renderer, markers []*Marker, opts Options) *Engine {
	opts.applyDefaults()

	e := &Engine{
		host:         h,
		renderer:     r,
		opts:         opts,
		logger:       opts.Logger,
		assigned:     make(map[*Marker]bool),
		dragSubs:     make(map[*Marker]host.Subscription),
		previousZoom: h.Zoom(),
	}

	e.subs = append(e.subs,
		h.OnZoomChanged(e.zoomChanged),
		h.OnIdle(e.idle),
	)

	e.AddMarkers(markers, true)

	if h.Attached() {
		e.ready = true
		e.Redraw()
	}

	return e
}

// Ready reports whether the host surface has attached and clustering can
// run.
func (e *Engine) Ready() bool { return e.ready }

// Markers returns all tracked markers, clustered or not.
func (e *Engine) Markers() []*Marker { return e.markers }

// Clusters returns the current partition. It is only valid for markers
// inside the last computed viewport.
func (e *Engine) Clusters() []*Cluster { return e.clusters }

// Options returns the engine's effective configuration.
func (e *Engine) Options() Options { return e.opts }

// AddMarkers registers markers with the engine. Draggable markers get a
// drag-end subscription that unassigns them and repaints, since a dragged
// marker may now belong in a different cluster. Recomputation runs unless
// noRedraw is set (bulk-load optimization).
func (e *Engine) AddMarkers(markers []*Marker, noRedraw bool) {
	for _, m := range markers {
		e.pushMarker(m)
	}
	metrics.TrackedMarkers.WithLabelValues(e.opts.Name).Set(float64(len(e.markers)))
	if !noRedraw {
		e.Redraw()
	}
}

// AddMarker registers a single marker.
func (e *Engine) AddMarker(m *Marker, noRedraw bool) {
	e.AddMarkers([]*Marker{m}, noRedraw)
}

func (e *Engine) pushMarker(m *Marker) {
	e.assigned[m] = false
	if m.Draggable {
		marker := m
		e.dragSubs[m] = e.host.OnMarkerDragEnd(m.ID, func() {
			e.assigned[marker] = false
			e.Repaint()
		})
	}
	e.markers = append(e.markers, m)
}

// RemoveMarker removes a marker by identity and reports whether it was
// found. A found marker is detached from the map surface, and unless
// noRedraw is set the whole viewport is reset and recomputed: removal
// cannot be handled incrementally because the removed marker's former
// cluster-mates may need redistribution.
func (e *Engine) RemoveMarker(m *Marker, noRedraw bool) bool {
	if !e.dropMarker(m) {
		return false
	}
	metrics.TrackedMarkers.WithLabelValues(e.opts.Name).Set(float64(len(e.markers)))
	if !noRedraw {
		e.ResetViewport(false)
		e.Redraw()
	}
	return true
}

// RemoveMarkers removes a batch of markers, resetting the viewport once
// at the end if any were found.
func (e *Engine) RemoveMarkers(markers []*Marker, noRedraw bool) bool {
	removed := false
	for _, m := range markers {
		if e.dropMarker(m) {
			removed = true
		}
	}
	if !removed {
		return false
	}
	metrics.TrackedMarkers.WithLabelValues(e.opts.Name).Set(float64(len(e.markers)))
	if !noRedraw {
		e.ResetViewport(false)
		e.Redraw()
	}
	return true
}

func (e *Engine) dropMarker(m *Marker) bool {
	index := -1
	for i, tracked := range e.markers {
		if tracked == m {
			index = i
			break
		}
	}
	if index < 0 {
		return false
	}

	if sub, ok := e.dragSubs[m]; ok {
		sub.Cancel()
		delete(e.dragSubs, m)
	}
	delete(e.assigned, m)
	e.renderer.RemoveMarker(m)
	e.markers = append(e.markers[:index], e.markers[index+1:]...)
	return true
}

// ResetViewport destroys every current cluster and clears every marker's
// assignment. This is the only way cluster membership is torn down. With
// hideMarkers set, markers are also detached from the map surface.
func (e *Engine) ResetViewport(hideMarkers bool) {
	for _, c := range e.clusters {
		c.remove()
	}
	e.clusters = nil

	for _, m := range e.markers {
		e.assigned[m] = false
		if hideMarkers {
			e.renderer.RemoveMarker(m)
		}
	}

	metrics.ViewportResets.WithLabelValues(e.opts.Name).Inc()
	metrics.ActiveClusters.WithLabelValues(e.opts.Name).Set(0)
}

// Repaint rebuilds the partition from scratch without a visible gap: the
// old clusters are detached only after the new ones have been computed
// and drawn, via the host's deferred scheduler. The deferred disposal is
// idempotent, so it may run in any later turn even if another recompute
// supersedes it first.
func (e *Engine) Repaint() {
	old := e.clusters
	e.clusters = nil
	e.ResetViewport(false)
	e.Redraw()

	e.host.Defer(func() {
		for _, c := range old {
			c.remove()
		}
	})
}

// Redraw recomputes clusters for the current viewport.
func (e *Engine) Redraw() {
	e.createClusters()
}

// FitMapToMarkers fits the host viewport to every tracked marker.
func (e *Engine) FitMapToMarkers() error {
	points := make([]geo.Point, 0, len(e.markers))
	for _, m := range e.markers {
		points = append(points, m.Position)
	}
	bounds, err := geo.ComputeBoundingBox(points)
	if err != nil {
		return fmt.Errorf("cannot fit map to markers: %v", err)
	}
	e.host.FitBounds(bounds)
	return nil
}

// ActivateCluster reports a cluster activation (typically a click on its
// aggregate icon) to the configured callback with the cluster's tight
// bounding box, and fits the viewport to it unless zoom-on-click is
// disabled.
func (e *Engine) ActivateCluster(c *Cluster, ev host.InputEvent) {
	bounds := c.Bounds()
	if e.opts.OnClusterActivated != nil {
		e.opts.OnClusterActivated(c, bounds, ev)
	}
	if !e.opts.NoZoomOnClick {
		e.host.FitBounds(bounds)
	}
}

// NewCluster creates an empty cluster, appends it to the partition, and
// returns it. Assignment strategies use this when no existing cluster can
// accept a marker.
func (e *Engine) NewCluster() *Cluster {
	e.clusterSeq++
	c := &Cluster{engine: e, seq: e.clusterSeq}
	e.clusters = append(e.clusters, c)
	return c
}

// Close cancels all host subscriptions. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	for _, sub := range e.subs {
		sub.Cancel()
	}
	e.subs = nil
	for m, sub := range e.dragSubs {
		sub.Cancel()
		delete(e.dragSubs, m)
	}
}

func (e *Engine) idle() {
	if !e.ready && e.host.Attached() {
		e.ready = true
		// previousZoom was snapshotted from a detached host; resync so a
		// later change back to that level still counts as a zoom change.
		e.previousZoom = e.host.Zoom()
	}
	e.Redraw()
}

func (e *Engine) zoomChanged() {
	zoom := e.host.Zoom()
	if zoom == e.previousZoom {
		return
	}
	// Cluster geometry depends on zoom through pixel-space padding, so
	// stale clusters must not survive a zoom change.
	e.previousZoom = zoom
	e.ResetViewport(false)
}

// createClusters runs one incremental recomputation pass: every marker
// that is inside the padded viewport and not yet assigned goes through
// the assignment strategy. Already-assigned markers and markers outside
// the padded viewport are skipped, which keeps a settled viewport cheap
// to re-idle.
func (e *Engine) createClusters() {
	if !e.ready {
		return
	}

	start := time.Now()
	bounds := geo.PadBounds(e.host, e.host.ViewportBounds(), float64(e.opts.GridSize))

	placed := 0
	for _, m := range e.markers {
		if !e.assigned[m] && bounds.ContainsPoint(m.Position) {
			e.opts.Strategy.Assign(m, e)
			placed++
		}
	}

	metrics.Recomputes.WithLabelValues(e.opts.Name).Inc()
	metrics.RecomputeDuration.WithLabelValues(e.opts.Name).Observe(time.Since(start).Seconds())
	metrics.ActiveClusters.WithLabelValues(e.opts.Name).Set(float64(len(e.clusters)))

	if placed > 0 {
		e.logger.Debug("recomputed clusters",
			"engine", e.opts.Name,
			"placed", placed,
			"clusters", len(e.clusters),
			"zoom", e.host.Zoom(),
		)
	}
}

// markAssigned flags a marker as placed during the current pass. Called
// by Cluster.AddMarker.
func (e *Engine) markAssigned(m *Marker) {
	e.assigned[m] = true
}
