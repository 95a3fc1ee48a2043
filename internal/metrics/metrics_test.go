package metrics_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/spares-console/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordRemoteRequest(t *testing.T) {
	before := testutil.ToFloat64(metrics.RemoteRequestsTotal.WithLabelValues("GET", "404"))
	metrics.RecordRemoteRequest("GET", 404, 20*time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RemoteRequestsTotal.WithLabelValues("GET", "404")))

	before = testutil.ToFloat64(metrics.RemoteRequestsTotal.WithLabelValues("POST", "transport"))
	metrics.RecordRemoteRequest("POST", 0, time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RemoteRequestsTotal.WithLabelValues("POST", "transport")))
}

func TestRecordGuardDecision(t *testing.T) {
	before := testutil.ToFloat64(metrics.GuardDecisionsTotal.WithLabelValues("allow"))
	metrics.RecordGuardDecision("allow")
	require.Equal(t, before+1, testutil.ToFloat64(metrics.GuardDecisionsTotal.WithLabelValues("allow")))
}
