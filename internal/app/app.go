package app

import (
	"log/slog"
	"net/http"
	"sync"

	"markercluster.opengeo.dev/internal/cluster"
	"markercluster.opengeo.dev/internal/config"
	"markercluster.opengeo.dev/internal/geo"
	"markercluster.opengeo.dev/internal/host"
	"markercluster.opengeo.dev/internal/markers"
)

// Application wires the clustering engine, its headless host surface, the
// marker sources and the configuration service together behind the HTTP
// API. The engine and its host are single-threaded, so every handler that
// touches them takes the engine mutex first.
type Application struct {
	ConfigService *config.ConfigService
	MarkerService *markers.Service
	Logger        *slog.Logger
	Version       string

	// engineMu serializes all access to the host, renderer and engine.
	engineMu sync.Mutex
	host     *host.SimMap
	renderer *cluster.MemoryRenderer
	engine   *cluster.Engine
}

// New creates and wires all dependencies for the Application.
// Accepts config, logger, client, cache directory and version as arguments.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, cacheDir, version string) *Application {
	store := markers.NewStore()

	configService := config.NewConfigService(logger, client, cfg)
	markerService := markers.NewService(store, logger, client, cacheDir)

	return &Application{
		ConfigService: configService,
		MarkerService: markerService,
		Logger:        logger,
		Version:       version,
	}
}

// defaultViewport is where the headless map attaches when no markers are
// loaded yet.
var defaultViewport = geo.Point{Lat: 47.6062, Lon: -122.3321}

// StartEngine attaches the headless map surface and builds a clustering
// engine over every loaded marker. Safe to call again after the marker
// store changes; the previous engine is shut down first.
func (app *Application) StartEngine() {
	app.engineMu.Lock()
	defer app.engineMu.Unlock()

	if app.engine != nil {
		app.engine.Close()
	}

	app.host = host.NewSimMap()
	app.renderer = cluster.NewMemoryRenderer()
	app.host.Attach(defaultViewport, 12, 1024, 768)

	loaded := app.MarkerService.Store.All()
	opts := cluster.FromSettings("default", app.ConfigService.Config.GetClusterSettings())
	opts.Logger = app.Logger
	app.engine = cluster.New(app.host, app.renderer, loaded, opts)

	if len(loaded) > 0 {
		if err := app.engine.FitMapToMarkers(); err != nil {
			app.Logger.Error("Failed to fit viewport to markers", "error", err)
		}
	}

	app.Logger.Info("Clustering engine started", "markers", len(loaded), "clusters", len(app.engine.Clusters()))
}

// withEngine runs fn while holding the engine mutex. It returns false if
// the engine has not been started.
func (app *Application) withEngine(fn func(e *cluster.Engine, m *host.SimMap)) bool {
	app.engineMu.Lock()
	defer app.engineMu.Unlock()
	if app.engine == nil {
		return false
	}
	fn(app.engine, app.host)
	return true
}
