package app

import (
	"context"
	"time"

	"markercluster.opengeo.dev/internal/metrics"
)

// StartMetricsCollection runs a background loop that refreshes the
// per-source marker gauges every interval until the context is canceled.
// The engine maintains its own gauges as it recomputes; this loop covers
// the marker store, which changes independently when sources refresh.
func (app *Application) StartMetricsCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				app.CollectSourceMetrics()
			}
		}
	}()
}

// CollectSourceMetrics updates the marker-count gauge of every loaded
// source.
func (app *Application) CollectSourceMetrics() {
	store := app.MarkerService.Store
	for _, id := range store.SourceIDs() {
		loaded, _ := store.Get(id)
		metrics.SourceMarkers.WithLabelValues(id).Set(float64(len(loaded)))
	}
}
