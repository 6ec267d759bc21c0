package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docuseal_embed"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Embed metrics
	PagesRendered *prometheus.CounterVec
	URLsBuilt     *prometheus.CounterVec

	// Message metrics
	MessagesClassified *prometheus.CounterVec
	MessagesSent       *prometheus.CounterVec

	// Outbound call metrics
	RetryAttempts *prometheus.CounterVec
	ProbeRequests *prometheus.CounterVec
	ProbeDuration prometheus.Histogram
	BreakerState  *prometheus.GaugeVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveConnections int64   `json:"active_connections"`
	MessagesReceived  int64   `json:"messages_received"`
	AvgDurationMS     float64 `json:"avg_duration_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		PagesRendered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embed_pages_rendered_total",
				Help:      "Embed pages rendered, by preset",
			},
			[]string{"preset"},
		),
		URLsBuilt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "form_urls_built_total",
				Help:      "Form URLs built, by outcome",
			},
			[]string{"outcome"},
		),

		MessagesClassified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_classified_total",
				Help:      "Inbound frame messages, by event kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		MessagesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_sent_total",
				Help:      "Outbound frame messages, by type and delivery",
			},
			[]string{"type", "delivery"},
		),

		RetryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retry_attempts_total",
				Help:      "Failed attempts that were retried, by operation",
			},
			[]string{"operation"},
		),
		ProbeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probe_requests_total",
				Help:      "Form probes, by host and result",
			},
			[]string{"host", "result"},
		),
		ProbeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "probe_duration_seconds",
				Help:      "Form probe duration in seconds, retries included",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state per host (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of active bridge WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Total number of bridge WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry holding every metric of m
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordPage records a rendered embed page
func (m *Metrics) RecordPage(preset string) {
	if preset == "" {
		preset = "none"
	}
	m.PagesRendered.WithLabelValues(preset).Inc()
}

// RecordURL records a BuildFormURL outcome
func (m *Metrics) RecordURL(err error) {
	m.URLsBuilt.WithLabelValues(outcome(err)).Inc()
}

// RecordClassified records the outcome of classifying one inbound message
func (m *Metrics) RecordClassified(kind, result string) {
	if kind == "" {
		kind = "none"
	}
	m.MessagesClassified.WithLabelValues(kind, result).Inc()

	m.mu.Lock()
	m.snapshot.MessagesReceived++
	m.mu.Unlock()
}

// RecordSent records an outbound message delivery
func (m *Metrics) RecordSent(msgType, delivery string) {
	m.MessagesSent.WithLabelValues(msgType, delivery).Inc()
}

// RecordRetry records a retried attempt
func (m *Metrics) RecordRetry(operation string) {
	m.RetryAttempts.WithLabelValues(operation).Inc()
}

// RecordProbe records a finished probe
func (m *Metrics) RecordProbe(host, result string, duration time.Duration) {
	m.ProbeRequests.WithLabelValues(host, result).Inc()
	m.ProbeDuration.Observe(duration.Seconds())
}

// SetBreakerState records a circuit breaker transition
func (m *Metrics) SetBreakerState(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	if s.TotalRequests > 0 {
		s.AvgDurationMS = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
