package cluster

import "markercluster.opengeo.dev/internal/geo"

// Cluster aggregates the markers that fall within one grid cell's bounds.
// It owns membership, the running center, and the show/hide policy for
// its members; the engine owns its lifecycle.
type Cluster struct {
	engine  *Engine
	seq     int // creation order, identity for logging
	markers []*Marker

	// center is nil until the first member joins. In average-center mode
	// it tracks the arithmetic mean of all member positions; otherwise it
	// stays at the first member's position.
	center *geo.Point

	// bounds is the padded acceptance region derived from center. The two
	// are always recomputed together.
	bounds geo.BoundingBox
}

// HasMarker reports whether the marker is already a member, by identity.
func (c *Cluster) HasMarker(m *Marker) bool {
	for _, member := range c.markers {
		if member == m {
			return true
		}
	}
	return false
}

// AddMarker adds a marker to the cluster and returns whether membership
// changed. Adding an existing member is a benign no-op returning false.
//
// The first member fixes the center; in average-center mode later members
// shift it to the running mean, and the acceptance bounds follow. Members
// below the minimum cluster size stay individually visible; the moment
// the threshold is reached every member is hidden in one step and the
// aggregate icon takes over.
func (c *Cluster) AddMarker(m *Marker) bool {
	if c.HasMarker(m) {
		return false
	}

	if c.center == nil {
		p := m.Position
		c.center = &p
		c.calculateBounds()
	} else if !c.engine.opts.FixedCenter {
		n := float64(len(c.markers) + 1)
		c.center.Lat = (c.center.Lat*(n-1) + m.Position.Lat) / n
		c.center.Lon = (c.center.Lon*(n-1) + m.Position.Lon) / n
		c.calculateBounds()
	}

	c.engine.markAssigned(m)
	c.markers = append(c.markers, m)

	count := len(c.markers)
	minSize := c.engine.opts.MinClusterSize
	if count < minSize {
		c.engine.renderer.ShowMarker(m)
	}
	if count == minSize {
		for _, member := range c.markers {
			c.engine.renderer.HideMarker(member)
		}
	}
	if count >= minSize {
		c.engine.renderer.HideMarker(m)
	}

	c.refreshIcon()
	return true
}

// InBounds reports whether the marker falls inside the cluster's padded
// acceptance bounds.
func (c *Cluster) InBounds(m *Marker) bool {
	return c.bounds.ContainsPoint(m.Position)
}

// Center returns the cluster center, if any member has joined yet.
func (c *Cluster) Center() (geo.Point, bool) {
	if c.center == nil {
		return geo.Point{}, false
	}
	return *c.center, true
}

// Size returns the member count.
func (c *Cluster) Size() int {
	return len(c.markers)
}

// Markers returns the members in join order. The slice is shared; callers
// must not mutate it.
func (c *Cluster) Markers() []*Marker {
	return c.markers
}

// Bounds returns the tight visual bounding box: the union of the center
// and every member position. This is what zoom-to-fit uses, distinct from
// the padded acceptance bounds.
func (c *Cluster) Bounds() geo.BoundingBox {
	if c.center == nil {
		return geo.BoundingBox{}
	}
	b := geo.BoxAround(*c.center)
	for _, m := range c.markers {
		b.Extend(m.Position)
	}
	return b
}

// refreshIcon re-evaluates the aggregate icon. Above the configured max
// zoom clustering is disabled: every member is forced visible and the
// icon suppressed. Below the minimum size the icon stays hidden. Otherwise
// the summary calculator produces the label and style tier and the icon
// is shown at the center.
func (c *Cluster) refreshIcon() {
	e := c.engine

	if e.opts.MaxZoom > 0 && e.host.Zoom() > e.opts.MaxZoom {
		for _, m := range c.markers {
			e.renderer.ShowMarker(m)
		}
		e.renderer.UpdateClusterIcon(c, c.hiddenIconState())
		return
	}

	if len(c.markers) < e.opts.MinClusterSize {
		e.renderer.UpdateClusterIcon(c, c.hiddenIconState())
		return
	}

	summary := e.opts.Calculator.Summarize(c.markers, len(e.opts.Styles))
	e.renderer.UpdateClusterIcon(c, IconState{
		Center:  *c.center,
		Summary: summary,
		Visible: true,
	})
}

func (c *Cluster) hiddenIconState() IconState {
	state := IconState{Visible: false}
	if c.center != nil {
		state.Center = *c.center
	}
	return state
}

// remove detaches the aggregate icon and clears membership. Safe to call
// on an already-removed cluster.
func (c *Cluster) remove() {
	c.engine.renderer.RemoveClusterIcon(c)
	c.markers = nil
}

// calculateBounds recomputes the padded acceptance bounds from the
// current center. Center and bounds never change independently.
func (c *Cluster) calculateBounds() {
	box := geo.BoxAround(*c.center)
	c.bounds = geo.PadBounds(c.engine.host, box, float64(c.engine.opts.GridSize))
}
