package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveHTTP(t *testing.T) {
	m := NewMetrics()

	m.ObserveHTTP("GET", "/api/v1/streams/:id", 200, 15*time.Millisecond)
	m.ObserveHTTP("GET", "/api/v1/streams/:id", 200, 20*time.Millisecond)
	m.ObserveHTTP("POST", "", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/streams/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "unmatched", "404")))
}

func TestMetrics_InFlight(t *testing.T) {
	m := NewMetrics()
	done := m.HTTPStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestMetrics_DomainCounters(t *testing.T) {
	m := NewMetrics()

	m.OrderTransition("paid")
	m.WSConnected(1)
	m.WSConnected(1)
	m.WSConnected(-1)
	m.WSEvent("in", "send-message")
	m.WSSlowConsumer()
	m.NotificationCreated("follow", 3)
	m.NotificationCreated("follow", 0)
	m.JobRun("expire_orders", nil)
	m.JobRun("expire_orders", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("paid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsEvents.WithLabelValues("in", "send-message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsDropped))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.notifications.WithLabelValues("follow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("expire_orders", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("expire_orders", "error")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
		m.HTTPStarted()()
		m.OrderTransition("paid")
		m.WSConnected(1)
		m.JobRun("x", nil)
		m.ObserveCheckout(time.Second)
		m.StreamJoined()
		m.LiveStreamDelta(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.StreamJoined()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "playhub_stream_joins_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
