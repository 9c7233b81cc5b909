package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// proxiedRequests counts backend responses relayed to callers.
	proxiedRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_gateway_proxied_requests_total",
		Help: "Backend responses relayed to callers, labeled by status code",
	}, []string{"code"})

	// rejectedPaths counts requests answered 404 by the allow-list.
	rejectedPaths = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_gateway_rejected_paths_total",
		Help: "Requests rejected because their path is not allow-listed",
	})

	// backendErrors counts failed backend round trips (answered 502).
	backendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_gateway_backend_errors_total",
		Help: "Requests that failed to reach the backend",
	})

	// activeStreams tracks currently open event-stream relays.
	activeStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arena_gateway_active_streams",
		Help: "Event-stream responses currently being relayed",
	})
)

func init() {
	prometheus.MustRegister(
		proxiedRequests,
		rejectedPaths,
		backendErrors,
		activeStreams,
	)
}

// MetricsHandler returns the Prometheus scrape handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
