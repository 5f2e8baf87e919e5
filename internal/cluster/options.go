package cluster

import (
	"log/slog"

	"markercluster.opengeo.dev/internal/geo"
	"markercluster.opengeo.dev/internal/host"
	"markercluster.opengeo.dev/internal/models"
)

// Options configures a clustering engine. The zero value gives the
// documented defaults: a 60 pixel grid, aggregation from 2 markers,
// average-center mode, zoom-to-fit on activation, and the five built-in
// icon tiers.
type Options struct {
	// Name labels this engine in metrics and logs.
	Name string

	// GridSize is the grid cell size in pixels. It pads the viewport
	// bounds during recomputation and sizes each cluster's acceptance
	// region.
	GridSize int

	// MinClusterSize is the member count at which a cluster stops showing
	// individual markers and shows one aggregate icon instead.
	MinClusterSize int

	// MaxZoom disables clustering above this zoom level. Zero leaves
	// clustering enabled at every zoom.
	MaxZoom int

	// FixedCenter pins a cluster's center at its first member's position
	// instead of tracking the running mean of all members.
	FixedCenter bool

	// NoZoomOnClick disables the default fit-viewport-to-cluster behavior
	// when a cluster is activated.
	NoZoomOnClick bool

	// ImagePath and ImageExtension locate the aggregate icon assets used
	// when Styles is empty.
	ImagePath      string
	ImageExtension string

	// Styles is the ordered list of aggregate icon tiers. The summary
	// calculator picks one by index.
	Styles []models.IconStyle

	// Calculator computes a cluster's display summary. Nil selects the
	// count-magnitude default.
	Calculator SummaryCalculator

	// Strategy decides which cluster a marker joins. Nil selects the
	// nearest-cluster default.
	Strategy AssignmentStrategy

	// OnClusterActivated, when set, is invoked with a cluster's tight
	// bounding box and the triggering input event whenever the cluster is
	// activated.
	OnClusterActivated func(c *Cluster, bounds geo.BoundingBox, ev host.InputEvent)

	// Logger for engine diagnostics. Nil selects slog.Default().
	Logger *slog.Logger
}

const (
	defaultGridSize       = 60
	defaultMinClusterSize = 2
)

func (o *Options) applyDefaults() {
	if o.Name == "" {
		o.Name = "default"
	}
	if o.GridSize <= 0 {
		o.GridSize = defaultGridSize
	}
	if o.MinClusterSize <= 0 {
		o.MinClusterSize = defaultMinClusterSize
	}
	if len(o.Styles) == 0 {
		o.Styles = models.DefaultStyles(o.ImagePath, o.ImageExtension)
	}
	if o.Calculator == nil {
		o.Calculator = DefaultCalculator
	}
	if o.Strategy == nil {
		o.Strategy = DefaultStrategy
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// FromSettings builds Options from the JSON configuration shape accepted
// by the preview server.
func FromSettings(name string, s models.ClusterSettings) Options {
	return Options{
		Name:           name,
		GridSize:       s.GridSize,
		MinClusterSize: s.MinClusterSize,
		MaxZoom:        s.MaxZoom,
		FixedCenter:    s.FixedCenter,
		NoZoomOnClick:  s.NoZoomOnClick,
		ImagePath:      s.ImagePath,
		ImageExtension: s.ImageExtension,
		Styles:         s.Styles,
	}
}
