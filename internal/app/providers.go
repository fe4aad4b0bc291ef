package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/aggregator"
	"aigate/internal/infra/catalog"
	"aigate/internal/infra/completion"
	"aigate/internal/infra/httpapi"
	"aigate/internal/infra/lifecycle"
	"aigate/internal/infra/modelrouter"
	"aigate/internal/infra/router"
	"aigate/internal/infra/telemetry"
	"aigate/internal/infra/transport"
)

func NewMetricsRegistry() *prometheus.Registry {
	return telemetry.NewMetricsRegistry()
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewRegistryStore(cfg domain.Config, logger *zap.Logger) (*catalog.Store, error) {
	return catalog.OpenStore(cfg.Registry, logger)
}

func NewConnector(cfg domain.Config, logger *zap.Logger) (*transport.Connector, error) {
	return transport.NewConnector(transport.ConnectorOptions{
		Logger:  logger,
		Headers: cfg.Supervisor.Headers,
	})
}

func NewSupervisor(
	store domain.RegistryStore,
	connector domain.Connector,
	metrics domain.Metrics,
	cfg domain.Config,
	logger *zap.Logger,
) *lifecycle.Supervisor {
	return lifecycle.NewSupervisor(lifecycle.Options{
		Store:            store,
		Connector:        connector,
		Metrics:          metrics,
		Logger:           logger,
		ConnectTimeout:   cfg.Supervisor.ConnectTimeout(),
		StartConcurrency: cfg.Supervisor.StartConcurrency,
	})
}

func NewHealthTracker(supervisor *lifecycle.Supervisor) *telemetry.HealthTracker {
	return telemetry.NewHealthTracker(supervisor)
}

func NewAggregator(handles domain.HandleSource, metrics domain.Metrics, cfg domain.Config, logger *zap.Logger) *aggregator.Aggregator {
	return aggregator.New(aggregator.Options{
		Handles:     handles,
		Metrics:     metrics,
		Logger:      logger,
		ListTimeout: cfg.Aggregator.ListTimeout(),
	})
}

// NewToolInvoker returns the timeout-bounded proxy wrapped with invocation metrics.
func NewToolInvoker(handles domain.HandleSource, metrics domain.Metrics, cfg domain.Config, logger *zap.Logger) domain.ToolInvoker {
	proxy := router.NewProxy(handles, router.ProxyOptions{
		Timeout: cfg.Proxy.InvokeTimeout(),
		Logger:  logger,
	})
	return router.NewMetricProxy(proxy, metrics)
}

func NewBackendCatalog(cfg domain.Config) (*modelrouter.BackendCatalog, error) {
	return modelrouter.NewBackendCatalog(cfg.Routing.Backends)
}

func NewModelRouter(backends *modelrouter.BackendCatalog, metrics domain.Metrics, cfg domain.Config, logger *zap.Logger) *modelrouter.Router {
	return modelrouter.NewRouter(backends, modelrouter.RouterOptions{
		LargeContextThreshold: cfg.Routing.LargeContextThreshold,
		Metrics:               metrics,
		Logger:                logger,
	})
}

func NewFallbackResolver(backends *modelrouter.BackendCatalog, metrics domain.Metrics, logger *zap.Logger) *modelrouter.Resolver {
	return modelrouter.NewResolver(backends, metrics, logger)
}

func NewModelFactory(cfg domain.Config) completion.ModelFactory {
	return completion.NewOpenAIFactory(cfg.LLM)
}

func NewDispatcher(
	modelRouter *modelrouter.Router,
	resolver *modelrouter.Resolver,
	factory completion.ModelFactory,
	metrics domain.Metrics,
	cfg domain.Config,
	logger *zap.Logger,
) *completion.Dispatcher {
	return completion.NewDispatcher(completion.Options{
		Router:      modelRouter,
		Resolver:    resolver,
		Factory:     factory,
		MaxAttempts: cfg.Routing.MaxAttempts,
		Metrics:     metrics,
		Logger:      logger,
	})
}

func NewAPIHandler(gateway *Gateway, logger *zap.Logger) http.Handler {
	return httpapi.NewHandler(gateway, httpapi.Options{Logger: logger})
}
