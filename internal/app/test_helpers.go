package app

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"markercluster.opengeo.dev/internal/cluster"
	"markercluster.opengeo.dev/internal/config"
	"markercluster.opengeo.dev/internal/models"
)

// newTestApplication returns an Application with one loaded source of
// three co-located markers and a running engine.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg := config.NewConfig(
		4000,
		"testing",
		config.Document{
			Sources: []models.MarkerSource{
				{ID: "test", Name: "Test Source", SnapshotPath: "test.snap"},
			},
			Cluster: models.ClusterSettings{GridSize: 60, MinClusterSize: 2},
		},
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := New(cfg, logger, &http.Client{}, "", "test-version")
	app.MarkerService.Store.Set("test", []*cluster.Marker{
		cluster.NewMarker("m1", 47.6060, -122.3320),
		cluster.NewMarker("m2", 47.6061, -122.3321),
		cluster.NewMarker("m3", 47.6062, -122.3322),
	})
	app.StartEngine()

	return app
}
