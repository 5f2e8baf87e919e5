package app

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"markercluster.opengeo.dev/internal/middleware"

	"github.com/julienschmidt/httprouter"
)

// Routes sets up the HTTP routing configuration for the application and returns the final http.Handler.
//
// Registered Routes:
//   - GET /v1/healthcheck:
//     JSON snapshot of the application's current health and readiness status.
//   - GET /v1/clusters:
//     The current cluster partition for a requested viewport, as GeoJSON.
//   - POST /v1/markers:
//     Adds one marker to the running engine.
//   - DELETE /v1/markers/:id:
//     Removes a marker from the running engine.
//   - GET /metrics:
//     Prometheus metrics, served through a cached handler
//     (middleware.NewCachedPromHandler) to reduce collection overhead.
//
// The router is wrapped with the Sentry middleware for error capture and
// with the security headers middleware.
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/v1/clusters", app.getClustersHandler)
	router.HandlerFunc(http.MethodPost, "/v1/markers", app.addMarkerHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/markers/:id", app.deleteMarkerHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, 10*time.Second))

	handler := middleware.SentryMiddleware(router)
	return middleware.SecurityHeaders(handler)
}
