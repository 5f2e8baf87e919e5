package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"markercluster.opengeo.dev/internal/cluster"
	"markercluster.opengeo.dev/internal/geo"
	"markercluster.opengeo.dev/internal/host"
)

// HealthStatus defines the structure of the JSON response returned by the
// application's health check endpoint (/v1/healthcheck).
//
// Fields:
//   - Status: A high-level indicator of service availability (e.g., "available").
//   - Environment: The current environment in which the app is running (e.g., "development", "staging", "production").
//   - Version: The application version string, useful for deployment tracking.
//   - Sources: The number of marker sources currently configured.
//   - Markers: The number of markers tracked by the running engine.
//   - Ready: Whether the clustering engine is attached and serving queries.
type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Sources     int    `json:"sources"`
	Markers     int    `json:"markers"`
	Ready       bool   `json:"ready"`
}

// healthcheckHandler responds with a JSON representation of the application's health status.
//
// If the engine has not started (no marker sources loaded yet), the handler
// responds with HTTP 500 Internal Server Error; otherwise HTTP 200 OK.
func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	numSources := len(app.ConfigService.Config.GetSources())

	var numMarkers int
	ready := app.withEngine(func(e *cluster.Engine, _ *host.SimMap) {
		numMarkers = len(e.Markers())
	})

	status := HealthStatus{
		Status:      "available",
		Environment: app.ConfigService.Config.Env,
		Version:     app.Version,
		Sources:     numSources,
		Markers:     numMarkers,
		Ready:       ready,
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(status)
}

// getClustersHandler serves GET /v1/clusters. It moves the engine's
// viewport to the requested bounds and zoom, lets the engine recompute,
// and returns the resulting partition as a GeoJSON FeatureCollection.
//
// Query parameters: north, south, east, west (degrees) and zoom.
func (app *Application) getClustersHandler(w http.ResponseWriter, r *http.Request) {
	bounds, zoom, err := parseViewportQuery(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var fc *cluster.FeatureCollection
	ok := app.withEngine(func(e *cluster.Engine, m *host.SimMap) {
		proj := geo.MercatorProjection{}
		ne := proj.PixelFromGeo(geo.Point{Lat: bounds.MaxLat, Lon: bounds.MaxLon}, zoom)
		sw := proj.PixelFromGeo(geo.Point{Lat: bounds.MinLat, Lon: bounds.MinLon}, zoom)

		width := int(ne.X - sw.X)
		height := int(sw.Y - ne.Y)
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}
		m.SetViewport(bounds.Center(), zoom, width, height)

		fc = e.ToGeoJSON()
	})
	if !ok {
		writeJSONError(w, http.StatusServiceUnavailable, "clustering engine not started")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	json.NewEncoder(w).Encode(fc)
}

// addMarkerHandler serves POST /v1/markers. It accepts a single marker as
// JSON and adds it to the running engine.
func (app *Application) addMarkerHandler(w http.ResponseWriter, r *http.Request) {
	var m cluster.Marker
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid marker payload: %v", err))
		return
	}
	if m.ID == "" {
		writeJSONError(w, http.StatusBadRequest, "marker id is required")
		return
	}
	if !geo.IsValidLatLon(m.Position.Lat, m.Position.Lon) {
		writeJSONError(w, http.StatusBadRequest, "marker position is out of range")
		return
	}

	var duplicate bool
	ok := app.withEngine(func(e *cluster.Engine, _ *host.SimMap) {
		for _, existing := range e.Markers() {
			if existing.ID == m.ID {
				duplicate = true
				return
			}
		}
		e.AddMarker(&m, false)
	})
	if !ok {
		writeJSONError(w, http.StatusServiceUnavailable, "clustering engine not started")
		return
	}
	if duplicate {
		writeJSONError(w, http.StatusConflict, fmt.Sprintf("marker %q already exists", m.ID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(&m)
}

// deleteMarkerHandler serves DELETE /v1/markers/:id.
func (app *Application) deleteMarkerHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	id := params.ByName("id")

	var removed bool
	ok := app.withEngine(func(e *cluster.Engine, _ *host.SimMap) {
		for _, m := range e.Markers() {
			if m.ID == id {
				removed = e.RemoveMarker(m, false)
				return
			}
		}
	})
	if !ok {
		writeJSONError(w, http.StatusServiceUnavailable, "clustering engine not started")
		return
	}
	if !removed {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no marker with id %q", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseViewportQuery(r *http.Request) (geo.BoundingBox, int, error) {
	q := r.URL.Query()

	coord := func(name string) (float64, error) {
		raw := q.Get(name)
		if raw == "" {
			return 0, fmt.Errorf("missing query parameter %q", name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid value for %q: %v", name, err)
		}
		return v, nil
	}

	north, err := coord("north")
	if err != nil {
		return geo.BoundingBox{}, 0, err
	}
	south, err := coord("south")
	if err != nil {
		return geo.BoundingBox{}, 0, err
	}
	east, err := coord("east")
	if err != nil {
		return geo.BoundingBox{}, 0, err
	}
	west, err := coord("west")
	if err != nil {
		return geo.BoundingBox{}, 0, err
	}

	zoomRaw := q.Get("zoom")
	if zoomRaw == "" {
		return geo.BoundingBox{}, 0, fmt.Errorf("missing query parameter %q", "zoom")
	}
	zoom, err := strconv.Atoi(zoomRaw)
	if err != nil {
		return geo.BoundingBox{}, 0, fmt.Errorf("invalid value for %q: %v", "zoom", err)
	}

	if north <= south {
		return geo.BoundingBox{}, 0, fmt.Errorf("north must be greater than south")
	}
	if east <= west {
		return geo.BoundingBox{}, 0, fmt.Errorf("east must be greater than west")
	}

	return geo.BoundingBox{MinLat: south, MaxLat: north, MinLon: west, MaxLon: east}, zoom, nil
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
