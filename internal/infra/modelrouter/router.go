package modelrouter

import (
	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/telemetry"
)

// Router turns routing requests into route decisions.
type Router struct {
	catalog   *BackendCatalog
	threshold int
	metrics   domain.Metrics
	logger    *zap.Logger
}

type RouterOptions struct {
	LargeContextThreshold int
	Metrics               domain.Metrics
	Logger                *zap.Logger
}

func NewRouter(catalog *BackendCatalog, opts RouterOptions) *Router {
	if catalog == nil {
		panic("modelrouter.Router requires a backend catalog")
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := opts.LargeContextThreshold
	if threshold <= 0 {
		threshold = domain.DefaultLargeContextThreshold
	}
	return &Router{catalog: catalog, threshold: threshold, metrics: metrics, logger: logger.Named("modelrouter")}
}

// Route selects the class and backend for req. A denial is a normal decision
// with Permitted false, not an error.
func (r *Router) Route(req domain.RoutingRequest) domain.RouteDecision {
	class, ok := Select(req, r.threshold)
	r.metrics.ObserveRouteSelection(req.Tier, req.Mode, class, ok)
	if !ok {
		r.logger.Debug("route denied",
			telemetry.EventField(telemetry.EventRouteDenied),
			zap.String("tier", string(req.Tier)),
			zap.String("mode", string(req.Mode)),
		)
		return domain.RouteDecision{Permitted: false}
	}
	return domain.RouteDecision{
		Permitted: true,
		Class:     class,
		Backend:   r.catalog.ForClass(class).ID,
	}
}

// Threshold is the context size above which rag requests use large_context.
func (r *Router) Threshold() int {
	return r.threshold
}
