package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveClusters is the number of clusters in the current partition.
	ActiveClusters = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "markercluster_active_clusters",
		Help: "Number of clusters in the engine's current partition",
	}, []string{"engine"})

	// TrackedMarkers is the number of markers the engine knows about,
	// whether or not they are inside the current viewport.
	TrackedMarkers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "markercluster_tracked_markers",
		Help: "Number of markers tracked by the engine",
	}, []string{"engine"})

	// SourceMarkers is the number of markers loaded from each configured
	// marker source.
	SourceMarkers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "markercluster_source_markers",
		Help: "Number of markers loaded per marker source",
	}, []string{"source"})
)

var (
	Recomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markercluster_recomputes_total",
		Help: "Number of cluster recomputation passes",
	}, []string{"engine"})

	ViewportResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markercluster_viewport_resets_total",
		Help: "Number of times the cluster partition was torn down",
	}, []string{"engine"})

	RecomputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "markercluster_recompute_duration_seconds",
		Help:    "Duration of a cluster recomputation pass",
		Buckets: prometheus.DefBuckets,
	}, []string{"engine"})
)

// OutgoingLatency tracks the latency of outgoing HTTP requests, such as
// GTFS bundle downloads and remote config fetches.
var OutgoingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "markercluster_outgoing_request_duration_seconds",
	Help:    "Duration of outgoing HTTP requests",
	Buckets: prometheus.DefBuckets,
}, []string{"url", "method", "status"})
