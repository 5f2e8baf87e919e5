package app

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"markercluster.opengeo.dev/internal/metrics"
)

// latencyTrackingRoundTripper wraps another RoundTripper to measure and
// record the latency of each outgoing HTTP request: GTFS bundle downloads
// and remote config fetches. Metrics are labeled by URL (without query
// parameters), method and response status.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	safeURL := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	metrics.OutgoingLatency.WithLabelValues(
		safeURL,
		req.Method,
		status,
	).Observe(duration)

	return resp, err
}

// NewPooledClient returns an HTTP client tuned for periodic bundle and
// config downloads: pooled keep-alive connections, fail-fast dial and TLS
// handshake timeouts, and a global request timeout. The transport is
// instrumented with the latency histogram above.
func NewPooledClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	instrumentedTransport := &latencyTrackingRoundTripper{next: transport}

	return &http.Client{
		Transport: instrumentedTransport,
		Timeout:   30 * time.Second,
	}
}
