package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"aigate/internal/domain"
)

const deniedLabel = "denied"

type PrometheusMetrics struct {
	connectAttempts    *prometheus.CounterVec
	connectDuration    *prometheus.HistogramVec
	liveConnections    prometheus.Gauge
	invokeDuration     *prometheus.HistogramVec
	catalogFailures    prometheus.Counter
	routeSelections    *prometheus.CounterVec
	fallbacks          *prometheus.CounterVec
	completionAttempts *prometheus.CounterVec
	completionLatency  *prometheus.HistogramVec
}

// NewMetricsRegistry returns a registry preloaded with the Go and process collectors.
func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		connectAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigate_tool_server_connects_total",
				Help: "Total number of tool-server connection attempts",
			},
			[]string{"outcome"},
		),
		connectDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aigate_tool_server_connect_duration_seconds",
				Help:    "Duration of tool-server connection attempts in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		liveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aigate_tool_server_live_connections",
				Help: "Current number of live tool-server sessions",
			},
		),
		invokeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aigate_tool_invoke_duration_seconds",
				Help:    "Duration of proxied tool invocations in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		catalogFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "aigate_tool_catalog_failures_total",
				Help: "Total number of tool servers skipped while aggregating the catalog",
			},
		),
		routeSelections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigate_route_selections_total",
				Help: "Total number of model route selections by outcome",
			},
			[]string{"tier", "mode", "class"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigate_route_fallbacks_total",
				Help: "Total number of capability class fallbacks",
			},
			[]string{"from", "to"},
		),
		completionAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigate_completion_attempts_total",
				Help: "Total number of completion attempts per backend",
			},
			[]string{"backend", "class", "status"},
		),
		completionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aigate_completion_latency_seconds",
				Help:    "Latency of completion attempts in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"class"},
		),
	}
}

func (p *PrometheusMetrics) ObserveConnect(outcome domain.ConnectOutcome, duration time.Duration) {
	p.connectAttempts.WithLabelValues(string(outcome)).Inc()
	p.connectDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) SetLiveConnections(count int) {
	p.liveConnections.Set(float64(count))
}

func (p *PrometheusMetrics) ObserveInvoke(metric domain.InvokeMetric) {
	status := metric.Status
	if status == "" {
		status = domain.InvokeStatusUnknown
	}
	p.invokeDuration.WithLabelValues(string(status)).Observe(metric.Duration.Seconds())
}

func (p *PrometheusMetrics) ObserveCatalogFailure() {
	p.catalogFailures.Inc()
}

func (p *PrometheusMetrics) ObserveRouteSelection(tier domain.Tier, mode domain.Mode, class domain.CapabilityClass, permitted bool) {
	label := string(class)
	if !permitted {
		label = deniedLabel
	}
	p.routeSelections.WithLabelValues(string(tier), string(mode), label).Inc()
}

func (p *PrometheusMetrics) ObserveFallback(from, to domain.CapabilityClass) {
	p.fallbacks.WithLabelValues(string(from), string(to)).Inc()
}

func (p *PrometheusMetrics) ObserveCompletionAttempt(backend string, class domain.CapabilityClass, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.completionAttempts.WithLabelValues(backend, string(class), status).Inc()
	p.completionLatency.WithLabelValues(string(class)).Observe(duration.Seconds())
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
