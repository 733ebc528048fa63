package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "playhub"

// Metrics owns the Prometheus registry exposed on /metrics.
// All recording methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	wsConnections prometheus.Gauge
	wsEvents      *prometheus.CounterVec
	wsDropped     prometheus.Counter

	orders           *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	streamJoins      prometheus.Counter
	liveStreams      prometheus.Gauge
	notifications    *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry, including the Go and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
		wsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "events_total",
			Help:      "Websocket events by direction and name.",
		}, []string{"direction", "event"}),
		wsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ws",
			Name:      "slow_consumer_disconnects_total",
			Help:      "Connections closed because their send buffer was full.",
		}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "orders_total",
			Help:      "Order state transitions.",
		}, []string{"status"}),
		checkoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "checkout_duration_seconds",
			Help:      "Duration of checkout including the payment gateway call.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		streamJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "stream",
			Name:      "joins_total",
			Help:      "Viewer joins across all streams.",
		}),
		liveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "stream",
			Name:      "live",
			Help:      "Streams currently live on this instance's view of the database.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notification",
			Name:      "created_total",
			Help:      "Notifications created by type.",
		}, []string{"type"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
	}

	m.registry.MustRegister(
		m.httpInFlight, m.httpRequests, m.httpDuration,
		m.wsConnections, m.wsEvents, m.wsDropped,
		m.orders, m.checkoutDuration,
		m.streamJoins, m.liveStreams,
		m.notifications, m.jobRuns,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPStarted increments the in-flight gauge; call the returned func when done
func (m *Metrics) HTTPStarted() func() {
	if m == nil {
		return func() {}
	}
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

// ObserveHTTP records one finished request. route is the matched route
// template, never the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// WSConnected tracks a websocket connection opening (+1) or closing (-1)
func (m *Metrics) WSConnected(delta int) {
	if m == nil {
		return
	}
	m.wsConnections.Add(float64(delta))
}

// WSEvent counts an inbound ("in") or outbound ("out") socket event
func (m *Metrics) WSEvent(direction, event string) {
	if m == nil {
		return
	}
	m.wsEvents.WithLabelValues(direction, event).Inc()
}

// WSSlowConsumer counts a connection dropped for a full send buffer
func (m *Metrics) WSSlowConsumer() {
	if m == nil {
		return
	}
	m.wsDropped.Inc()
}

// OrderTransition counts an order reaching status
func (m *Metrics) OrderTransition(status string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(status).Inc()
}

// ObserveCheckout records checkout latency
func (m *Metrics) ObserveCheckout(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.checkoutDuration.Observe(elapsed.Seconds())
}

// StreamJoined counts a viewer join
func (m *Metrics) StreamJoined() {
	if m == nil {
		return
	}
	m.streamJoins.Inc()
}

// LiveStreamDelta moves the live stream gauge
func (m *Metrics) LiveStreamDelta(delta int) {
	if m == nil {
		return
	}
	m.liveStreams.Add(float64(delta))
}

// NotificationCreated counts notifications by type
func (m *Metrics) NotificationCreated(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.notifications.WithLabelValues(kind).Add(float64(n))
}

// JobRun counts a scheduler job run; result is "ok" or "error"
func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}
