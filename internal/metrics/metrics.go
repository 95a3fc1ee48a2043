// Package metrics holds the Prometheus collectors for the console. Collectors are
// registered on the default registry when the package is imported and served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spares_console"

var (
	// RemoteRequestsTotal counts remote API calls by method and response status.
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Total number of remote API requests by method and status",
		},
		[]string{"method", "status"}, // status: HTTP code, or "transport" when no response arrived
	)

	// RemoteRequestDurationSeconds measures remote API latency.
	RemoteRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Duration of remote API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// UserFetchesTotal counts credential store refreshes by result.
	UserFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "user_fetches_total",
			Help:      "Total number of current-user fetches by result",
		},
		[]string{"result"}, // result: network, cached, error
	)

	// GuardDecisionsTotal counts navigation guard outcomes.
	GuardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Total number of navigation guard decisions by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordRemoteRequest records a completed remote call. status 0 means the transport failed.
func RecordRemoteRequest(method string, status int, elapsed time.Duration) {
	label := "transport"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	RemoteRequestsTotal.WithLabelValues(method, label).Inc()
	RemoteRequestDurationSeconds.WithLabelValues(method).Observe(elapsed.Seconds())
}

func RecordUserFetch(result string) {
	UserFetchesTotal.WithLabelValues(result).Inc()
}

func RecordGuardDecision(outcome string) {
	GuardDecisionsTotal.WithLabelValues(outcome).Inc()
}
