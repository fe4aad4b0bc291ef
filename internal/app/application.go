package app

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aigate/internal/domain"
	"aigate/internal/infra/catalog"
	"aigate/internal/infra/httpapi"
	"aigate/internal/infra/lifecycle"
	"aigate/internal/infra/telemetry"
)

// Application wires the gateway runtime and its servers.
type Application struct {
	ctx    context.Context
	cfg    domain.Config
	logger *zap.Logger

	registry   *prometheus.Registry
	health     *telemetry.HealthTracker
	store      *catalog.Store
	supervisor *lifecycle.Supervisor
	gateway    *Gateway
	handler    http.Handler
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Context    context.Context
	Config     domain.Config
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	Health     *telemetry.HealthTracker
	Store      *catalog.Store
	Supervisor *lifecycle.Supervisor
	Gateway    *Gateway
	Handler    http.Handler
}

// NewApplication constructs the application runtime.
func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		ctx:        ctx,
		cfg:        opts.Config,
		logger:     logger.Named("app"),
		registry:   opts.Registry,
		health:     opts.Health,
		store:      opts.Store,
		supervisor: opts.Supervisor,
		gateway:    opts.Gateway,
		handler:    opts.Handler,
	}
}

// Gateway returns the consumer facade.
func (a *Application) Gateway() *Gateway {
	return a.gateway
}

// Handler returns the HTTP API handler.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Run connects every enabled tool server, serves the HTTP API and the
// observability endpoints, and blocks until the context is done or a server
// fails. All sessions are closed before Run returns.
func (a *Application) Run() error {
	defer a.shutdown()

	summary, err := a.supervisor.Start(a.ctx)
	if err != nil {
		a.logger.Error("tool server startup failed", zap.Error(err))
		return err
	}
	a.logger.Info("tool servers started",
		zap.String("registry", a.cfg.Registry.Path),
		zap.Int("attempted", summary.Attempted),
		zap.Int("connected", summary.Connected),
		zap.Int("failed", summary.Failed),
	)

	group, ctx := errgroup.WithContext(a.ctx)
	group.Go(func() error {
		return httpapi.Serve(ctx, a.cfg.HTTP.ListenAddress, a.handler, a.logger)
	})
	group.Go(func() error {
		return telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
			Addr:          a.cfg.Observability.ListenAddress,
			EnableMetrics: a.cfg.Observability.Metrics,
			EnableHealthz: a.cfg.Observability.Healthz,
			Health:        a.health,
			Registry:      a.registry,
		}, a.logger)
	})
	return group.Wait()
}

func (a *Application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(domain.DefaultShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := a.supervisor.Stop(ctx); err != nil {
		a.logger.Warn("supervisor stop incomplete", zap.Error(err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("registry store close failed", zap.Error(err))
		}
	}
}
