package models

import "fmt"

// Summary is what a cluster displays when it is dense enough to be drawn
// as a single aggregate icon: a label and an index into the configured
// icon styles.
type Summary struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// IconStyle describes one aggregate icon tier. Index 0 of the configured
// style list is the smallest tier; the summary calculator picks a tier
// from the member count.
type IconStyle struct {
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	TextColor string `json:"textColor,omitempty"`
	TextSize  int    `json:"textSize,omitempty"`
	AnchorX   int    `json:"anchorX,omitempty"`
	AnchorY   int    `json:"anchorY,omitempty"`
}

// Default icon asset location, relative to wherever the visual layer
// serves its assets from.
const (
	DefaultImagePath      = "images/m"
	DefaultImageExtension = "png"
)

// defaultIconSizes are the five built-in aggregate icon tiers, in pixels.
var defaultIconSizes = []int{53, 56, 66, 78, 90}

// DefaultStyles builds the five built-in icon style tiers from an asset
// path prefix and extension. Asset names follow the "<path><n>.<ext>"
// convention, numbered from 1.
func DefaultStyles(imagePath, imageExtension string) []IconStyle {
	if imagePath == "" {
		imagePath = DefaultImagePath
	}
	if imageExtension == "" {
		imageExtension = DefaultImageExtension
	}

	styles := make([]IconStyle, 0, len(defaultIconSizes))
	for i, size := range defaultIconSizes {
		styles = append(styles, IconStyle{
			URL:    fmt.Sprintf("%s%d.%s", imagePath, i+1, imageExtension),
			Width:  size,
			Height: size,
		})
	}
	return styles
}

// MarkerSource describes where the preview server loads a marker set
// from. Exactly one of GtfsURL or SnapshotPath is expected to be set.
type MarkerSource struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	GtfsURL      string `json:"gtfs_url,omitempty"`
	SnapshotPath string `json:"snapshot_path,omitempty"`
}

// ClusterSettings is the JSON shape of the engine configuration accepted
// by the preview server. Zero values fall back to the engine defaults.
type ClusterSettings struct {
	GridSize       int         `json:"grid_size,omitempty"`
	MinClusterSize int         `json:"min_cluster_size,omitempty"`
	MaxZoom        int         `json:"max_zoom,omitempty"`
	FixedCenter    bool        `json:"fixed_center,omitempty"`
	NoZoomOnClick  bool        `json:"no_zoom_on_click,omitempty"`
	ImagePath      string      `json:"image_path,omitempty"`
	ImageExtension string      `json:"image_extension,omitempty"`
	Styles         []IconStyle `json:"styles,omitempty"`
}
