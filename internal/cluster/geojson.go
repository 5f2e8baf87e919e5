package cluster

// GeoJSON types for the preview API.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// ToGeoJSON renders the current partition as a FeatureCollection. Dense
// clusters become one point feature at their center carrying the summary;
// clusters below the minimum size are flattened into one feature per
// member.
func (e *Engine) ToGeoJSON() *FeatureCollection {
	features := make([]Feature, 0, len(e.clusters))

	for _, c := range e.clusters {
		center, ok := c.Center()
		if !ok {
			continue
		}

		if c.Size() >= e.opts.MinClusterSize {
			summary := e.opts.Calculator.Summarize(c.Markers(), len(e.opts.Styles))
			features = append(features, Feature{
				Type: "Feature",
				Geometry: Geometry{
					Type:        "Point",
					Coordinates: []float64{center.Lon, center.Lat},
				},
				Properties: map[string]any{
					"cluster":     true,
					"point_count": c.Size(),
					"summary":     summary.Text,
					"style_index": summary.Index,
				},
			})
			continue
		}

		for _, m := range c.Markers() {
			features = append(features, Feature{
				Type: "Feature",
				Geometry: Geometry{
					Type:        "Point",
					Coordinates: []float64{m.Position.Lon, m.Position.Lat},
				},
				Properties: map[string]any{
					"cluster":   false,
					"marker_id": m.ID,
				},
			})
		}
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
