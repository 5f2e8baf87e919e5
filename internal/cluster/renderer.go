package cluster

import (
	"sync"

	"markercluster.opengeo.dev/internal/geo"
	"markercluster.opengeo.dev/internal/models"
)

// IconState is everything the visual layer needs to draw (or hide) a
// cluster's aggregate icon: where, what summary, and whether it should be
// visible at all. How the icon is actually drawn is not the engine's
// concern.
type IconState struct {
	Center  geo.Point      `json:"center"`
	Summary models.Summary `json:"summary"`
	Visible bool           `json:"visible"`
}

// Renderer is implemented by the visual layer. The engine pushes marker
// visibility changes and cluster icon state through it; implementations
// must tolerate redundant calls (hiding a hidden marker, removing an
// already-removed icon).
type Renderer interface {
	ShowMarker(m *Marker)
	HideMarker(m *Marker)
	RemoveMarker(m *Marker)
	UpdateClusterIcon(c *Cluster, state IconState)
	RemoveClusterIcon(c *Cluster)
}

// RenderEvent records one renderer call, in order. Tests use the event
// log to assert ordering guarantees (e.g. repaint attaches new icons
// before old ones are detached); the preview server only reads the
// aggregate state.
type RenderEvent struct {
	Kind    string // "marker:show", "marker:hide", "marker:remove", "icon:update", "icon:remove"
	Marker  *Marker
	Cluster *Cluster
}

// MemoryRenderer is a Renderer that keeps the would-be visual state in
// memory. The engine drives it from a single goroutine; the read side is
// guarded so HTTP handlers can inspect state concurrently.
type MemoryRenderer struct {
	mu      sync.RWMutex
	markers map[*Marker]bool // present = attached to map, value = visible
	icons   map[*Cluster]IconState
	events  []RenderEvent
}

// NewMemoryRenderer creates an empty MemoryRenderer.
func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{
		markers: make(map[*Marker]bool),
		icons:   make(map[*Cluster]IconState),
	}
}

func (r *MemoryRenderer) ShowMarker(m *Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[m] = true
	r.events = append(r.events, RenderEvent{Kind: "marker:show", Marker: m})
}

func (r *MemoryRenderer) HideMarker(m *Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[m] = false
	r.events = append(r.events, RenderEvent{Kind: "marker:hide", Marker: m})
}

func (r *MemoryRenderer) RemoveMarker(m *Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.markers, m)
	r.events = append(r.events, RenderEvent{Kind: "marker:remove", Marker: m})
}

func (r *MemoryRenderer) UpdateClusterIcon(c *Cluster, state IconState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.icons[c] = state
	r.events = append(r.events, RenderEvent{Kind: "icon:update", Cluster: c})
}

// RemoveClusterIcon detaches a cluster's icon. Removing an icon that was
// never attached, or was already removed, is a no-op and is not recorded.
func (r *MemoryRenderer) RemoveClusterIcon(c *Cluster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.icons[c]; !ok {
		return
	}
	delete(r.icons, c)
	r.events = append(r.events, RenderEvent{Kind: "icon:remove", Cluster: c})
}

// MarkerVisible reports whether the marker is attached to the map and
// whether it is currently shown.
func (r *MemoryRenderer) MarkerVisible(m *Marker) (visible, attached bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	visible, attached = r.markers[m]
	return visible, attached
}

// VisibleMarkerCount returns the number of individually shown markers.
func (r *MemoryRenderer) VisibleMarkerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, visible := range r.markers {
		if visible {
			count++
		}
	}
	return count
}

// IconState returns the last pushed state for a cluster's icon.
func (r *MemoryRenderer) IconState(c *Cluster) (IconState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.icons[c]
	return state, ok
}

// VisibleIconCount returns the number of visible aggregate icons.
func (r *MemoryRenderer) VisibleIconCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, state := range r.icons {
		if state.Visible {
			count++
		}
	}
	return count
}

// Events returns a copy of the renderer call log.
func (r *MemoryRenderer) Events() []RenderEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RenderEvent(nil), r.events...)
}

// ResetEvents clears the call log without touching the visual state.
func (r *MemoryRenderer) ResetEvents() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
