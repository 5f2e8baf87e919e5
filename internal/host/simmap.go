package host

import "markercluster.opengeo.dev/internal/geo"

const (
	minZoomLevel = 0
	maxZoomLevel = 19
)

// SimMap is a headless Map implementation. It models a viewport as a
// center point plus a screen size in pixels and derives geographic bounds
// through the Web Mercator projection, which is what tests and the preview
// server need from a real map without rendering anything.
//
// Dispatch is synchronous and single-threaded: callers drive the map from
// one goroutine and handlers run inline. Functions passed to Defer are
// queued and drained after the handlers of the next event finish, or when
// Flush is called explicitly.
type SimMap struct {
	attached bool
	zoom     int
	center   geo.Point
	width    int
	height   int

	proj geo.MercatorProjection

	nextSubID   int
	idleSubs    map[int]func()
	zoomSubs    map[int]func()
	dragSubs    map[string]map[int]func()
	deferred    []func()
	dispatching bool
}

// NewSimMap creates a detached SimMap. Nothing works until Attach is
// called; this mirrors a real map surface that has not finished loading.
func NewSimMap() *SimMap {
	return &SimMap{
		idleSubs: make(map[int]func()),
		zoomSubs: make(map[int]func()),
		dragSubs: make(map[string]map[int]func()),
	}
}

// Attach makes the map surface live with the given viewport and fires the
// first idle notification, which is what triggers the engine's first
// cluster computation.
func (m *SimMap) Attach(center geo.Point, zoom, width, height int) {
	m.attached = true
	m.center = center
	m.zoom = clampZoom(zoom)
	m.width = width
	m.height = height
	m.fire(m.idleSubs)
}

// Attached reports whether Attach has been called.
func (m *SimMap) Attached() bool { return m.attached }

// Zoom returns the current zoom level.
func (m *SimMap) Zoom() int { return m.zoom }

// Center returns the current viewport center.
func (m *SimMap) Center() geo.Point { return m.center }

// PanTo moves the viewport center and fires an idle notification once the
// pan has settled.
func (m *SimMap) PanTo(center geo.Point) {
	m.center = center
	m.fire(m.idleSubs)
}

// SetZoom changes the zoom level, firing a zoom-changed notification
// followed by an idle notification, in the order a real map delivers them.
// Setting the current zoom again is a no-op.
func (m *SimMap) SetZoom(zoom int) {
	zoom = clampZoom(zoom)
	if zoom == m.zoom {
		return
	}
	m.zoom = zoom
	m.fire(m.zoomSubs)
	m.fire(m.idleSubs)
}

// SetViewport positions center, zoom, and screen size in one step, firing
// zoom-changed (if the zoom moved) and then idle.
func (m *SimMap) SetViewport(center geo.Point, zoom, width, height int) {
	zoom = clampZoom(zoom)
	zoomChanged := zoom != m.zoom
	m.center = center
	m.zoom = zoom
	m.width = width
	m.height = height
	if zoomChanged {
		m.fire(m.zoomSubs)
	}
	m.fire(m.idleSubs)
}

// ViewportBounds returns the geographic rectangle currently covered by the
// screen. The zero box is returned while detached.
func (m *SimMap) ViewportBounds() geo.BoundingBox {
	if !m.attached {
		return geo.BoundingBox{}
	}
	c := m.proj.PixelFromGeo(m.center, m.zoom)
	halfW := float64(m.width) / 2
	halfH := float64(m.height) / 2

	ne := m.proj.GeoFromPixel(geo.Pixel{X: c.X + halfW, Y: c.Y - halfH}, m.zoom)
	sw := m.proj.GeoFromPixel(geo.Pixel{X: c.X - halfW, Y: c.Y + halfH}, m.zoom)

	return geo.BoundingBox{
		MinLat: sw.Lat,
		MaxLat: ne.Lat,
		MinLon: sw.Lon,
		MaxLon: ne.Lon,
	}
}

// PixelFromGeo projects a geographic point at the current zoom level.
func (m *SimMap) PixelFromGeo(p geo.Point) geo.Pixel {
	return m.proj.PixelFromGeo(p, m.zoom)
}

// GeoFromPixel unprojects world pixel coordinates at the current zoom level.
func (m *SimMap) GeoFromPixel(px geo.Pixel) geo.Point {
	return m.proj.GeoFromPixel(px, m.zoom)
}

// FitBounds pans and zooms so the given bounds fit inside the screen at
// the highest zoom level that still contains them.
func (m *SimMap) FitBounds(b geo.BoundingBox) {
	if !m.attached {
		return
	}

	fit := minZoomLevel
	for z := maxZoomLevel; z >= minZoomLevel; z-- {
		ne := m.proj.PixelFromGeo(geo.Point{Lat: b.MaxLat, Lon: b.MaxLon}, z)
		sw := m.proj.PixelFromGeo(geo.Point{Lat: b.MinLat, Lon: b.MinLon}, z)
		if ne.X-sw.X <= float64(m.width) && sw.Y-ne.Y <= float64(m.height) {
			fit = z
			break
		}
	}

	m.center = b.Center()
	if fit != m.zoom {
		m.zoom = fit
		m.fire(m.zoomSubs)
	}
	m.fire(m.idleSubs)
}

// OnIdle registers a callback for viewport-settled notifications.
func (m *SimMap) OnIdle(fn func()) Subscription {
	return m.subscribe(m.idleSubs, fn)
}

// OnZoomChanged registers a callback for zoom level changes.
func (m *SimMap) OnZoomChanged(fn func()) Subscription {
	return m.subscribe(m.zoomSubs, fn)
}

// OnMarkerDragEnd registers a callback fired when the marker with the
// given ID finishes a drag.
func (m *SimMap) OnMarkerDragEnd(markerID string, fn func()) Subscription {
	subs, ok := m.dragSubs[markerID]
	if !ok {
		subs = make(map[int]func())
		m.dragSubs[markerID] = subs
	}
	id := m.nextSubID
	m.nextSubID++
	subs[id] = fn
	return &simSubscription{cancel: func() { delete(subs, id) }}
}

// EndMarkerDrag simulates the host reporting a finished drag for the given
// marker, optionally at a new position supplied by the caller beforehand.
func (m *SimMap) EndMarkerDrag(markerID string) {
	if subs, ok := m.dragSubs[markerID]; ok {
		m.fire(subs)
	}
}

// Defer queues fn to run after the current pass. If no further event
// arrives, Flush drains the queue.
func (m *SimMap) Defer(fn func()) {
	m.deferred = append(m.deferred, fn)
}

// Flush runs all deferred functions. Deferred work queued while draining
// runs in the same call.
func (m *SimMap) Flush() {
	for len(m.deferred) > 0 {
		queue := m.deferred
		m.deferred = nil
		for _, fn := range queue {
			fn()
		}
	}
}

func (m *SimMap) subscribe(subs map[int]func(), fn func()) Subscription {
	id := m.nextSubID
	m.nextSubID++
	subs[id] = fn
	return &simSubscription{cancel: func() { delete(subs, id) }}
}

// fire dispatches an event to its handlers, then drains the deferred
// queue. Nested fires leave draining to the outermost dispatch so deferred
// work runs strictly after the whole pass.
func (m *SimMap) fire(subs map[int]func()) {
	nested := m.dispatching
	m.dispatching = true

	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	for _, id := range ids {
		if fn, ok := subs[id]; ok {
			fn()
		}
	}

	if !nested {
		m.dispatching = false
		m.Flush()
	}
}

func clampZoom(zoom int) int {
	if zoom < minZoomLevel {
		return minZoomLevel
	}
	if zoom > maxZoomLevel {
		return maxZoomLevel
	}
	return zoom
}

type simSubscription struct {
	cancel func()
	done   bool
}

func (s *simSubscription) Cancel() {
	if s.done {
		return
	}
	s.done = true
	s.cancel()
}
