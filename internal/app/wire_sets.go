//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"aigate/internal/domain"
	"aigate/internal/infra/aggregator"
	"aigate/internal/infra/catalog"
	"aigate/internal/infra/completion"
	"aigate/internal/infra/lifecycle"
	"aigate/internal/infra/modelrouter"
	"aigate/internal/infra/transport"
)

var CoreInfraSet = wire.NewSet(
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewRegistryStore,
	NewConnector,
	NewSupervisor,
	NewHealthTracker,
	wire.Bind(new(domain.RegistryStore), new(*catalog.Store)),
	wire.Bind(new(domain.Connector), new(*transport.Connector)),
	wire.Bind(new(domain.HandleSource), new(*lifecycle.Supervisor)),
)

var ToolSet = wire.NewSet(
	NewAggregator,
	NewToolInvoker,
)

var ModelSet = wire.NewSet(
	NewBackendCatalog,
	NewModelRouter,
	NewFallbackResolver,
	NewModelFactory,
	NewDispatcher,
)

var GatewaySet = wire.NewSet(
	wire.Struct(new(GatewayOptions), "*"),
	NewGateway,
	NewAPIHandler,
	wire.Bind(new(ToolServerManager), new(*lifecycle.Supervisor)),
	wire.Bind(new(ToolLister), new(*aggregator.Aggregator)),
	wire.Bind(new(RequestRouter), new(*modelrouter.Router)),
	wire.Bind(new(Completer), new(*completion.Dispatcher)),
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	ToolSet,
	ModelSet,
	GatewaySet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
