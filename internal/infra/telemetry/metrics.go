package telemetry

import (
	"time"

	"aigate/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveConnect(_ domain.ConnectOutcome, _ time.Duration) {}

func (n *NoopMetrics) SetLiveConnections(_ int) {}

func (n *NoopMetrics) ObserveInvoke(_ domain.InvokeMetric) {}

func (n *NoopMetrics) ObserveCatalogFailure() {}

func (n *NoopMetrics) ObserveRouteSelection(_ domain.Tier, _ domain.Mode, _ domain.CapabilityClass, _ bool) {
}

func (n *NoopMetrics) ObserveFallback(_, _ domain.CapabilityClass) {}

func (n *NoopMetrics) ObserveCompletionAttempt(_ string, _ domain.CapabilityClass, _ error, _ time.Duration) {
}

var _ domain.Metrics = (*NoopMetrics)(nil)
