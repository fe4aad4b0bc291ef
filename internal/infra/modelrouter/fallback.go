package modelrouter

import (
	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/telemetry"
)

var fallbackTable = map[domain.CapabilityClass]domain.CapabilityClass{
	domain.ClassReasoning:    domain.ClassStandard,
	domain.ClassVision:       domain.ClassStandard,
	domain.ClassLargeContext: domain.ClassStandard,
	domain.ClassCoder:        domain.ClassStandard,
	domain.ClassStandard:     domain.ClassMini,
	domain.ClassMini:         domain.ClassNano,
	domain.ClassNano:         domain.ClassMini,
}

// Fallback returns the class to try after class failed. It never reports
// "no fallback"; nano and mini point at each other, so callers must cap
// their own retries.
func Fallback(class domain.CapabilityClass) domain.CapabilityClass {
	if next, ok := fallbackTable[class]; ok {
		return next
	}
	return domain.ClassNano
}

// Resolver maps failed backend ids to their fallback backend.
type Resolver struct {
	catalog *BackendCatalog
	metrics domain.Metrics
	logger  *zap.Logger
}

func NewResolver(catalog *BackendCatalog, metrics domain.Metrics, logger *zap.Logger) *Resolver {
	if catalog == nil {
		panic("modelrouter.Resolver requires a backend catalog")
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{catalog: catalog, metrics: metrics, logger: logger.Named("fallback")}
}

// FallbackFor returns the backend to try after backendID failed. Ids outside
// the catalog resolve to the nano backend and are logged.
func (r *Resolver) FallbackFor(backendID string) domain.Backend {
	failed, ok := r.catalog.Lookup(backendID)
	if !ok {
		r.logger.Warn("unknown backend id; falling back to nano",
			telemetry.EventField(telemetry.EventUnknownBackend),
			telemetry.BackendField(backendID),
		)
		return r.catalog.ForClass(domain.ClassNano)
	}
	next := Fallback(failed.Class)
	r.metrics.ObserveFallback(failed.Class, next)
	return r.catalog.ForClass(next)
}
