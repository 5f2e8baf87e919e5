// Package host defines the surface the clustering engine needs from the
// map platform it runs against: coordinate projection, viewport and zoom
// queries, and change notifications. The engine never talks to a concrete
// map implementation directly.
package host

import "markercluster.opengeo.dev/internal/geo"

// Subscription is a handle for a registered event callback. Cancel
// releases the callback; canceling twice is a no-op.
type Subscription interface {
	Cancel()
}

// InputEvent describes the user input that triggered a notification, in
// screen pixel coordinates. The engine passes it through untouched.
type InputEvent struct {
	Type string
	X    float64
	Y    float64
}

// Map is the host map platform as seen by the clustering engine.
//
// Attached reports whether the map surface is live: projection and
// viewport queries are only meaningful once it returns true. PixelFromGeo
// and GeoFromPixel operate at the map's current zoom level, which makes a
// Map satisfy geo.Projector.
//
// Defer schedules a function to run after the current synchronous pass has
// completed and the host has rendered; the host gives no guarantee about
// which later turn it runs in, so deferred work must be idempotent.
type Map interface {
	Attached() bool
	Zoom() int
	ViewportBounds() geo.BoundingBox
	PixelFromGeo(p geo.Point) geo.Pixel
	GeoFromPixel(px geo.Pixel) geo.Point
	FitBounds(b geo.BoundingBox)
	OnIdle(fn func()) Subscription
	OnZoomChanged(fn func()) Subscription
	OnMarkerDragEnd(markerID string, fn func()) Subscription
	Defer(fn func())
}
