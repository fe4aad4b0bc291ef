package app

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/hashutil"
)

// ToolServerManager owns registrations and their live sessions.
type ToolServerManager interface {
	AddServer(ctx context.Context, name, url string) (domain.Registration, bool, error)
	RemoveServer(ctx context.Context, id string) error
	Reconnect(ctx context.Context, id string) (bool, error)
	List() ([]domain.ServerStatus, error)
}

// ToolLister builds the aggregated tool catalog.
type ToolLister interface {
	ListAllTools(ctx context.Context) []domain.ToolDescriptor
}

// RequestRouter maps routing requests to backends.
type RequestRouter interface {
	Route(req domain.RoutingRequest) domain.RouteDecision
}

// Completer runs routed chat completions.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// GatewayOptions captures the collaborators of Gateway.
type GatewayOptions struct {
	Servers   ToolServerManager
	Tools     ToolLister
	Invoker   domain.ToolInvoker
	Router    RequestRouter
	Completer Completer
	Logger    *zap.Logger
}

// Gateway is the consumer-facing surface of the tool-server manager and the
// model router.
type Gateway struct {
	servers   ToolServerManager
	tools     ToolLister
	invoker   domain.ToolInvoker
	router    RequestRouter
	completer Completer
	logger    *zap.Logger
}

func NewGateway(opts GatewayOptions) *Gateway {
	if opts.Servers == nil || opts.Tools == nil || opts.Invoker == nil || opts.Router == nil || opts.Completer == nil {
		panic("app.Gateway requires servers, tools, invoker, router and completer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		servers:   opts.Servers,
		tools:     opts.Tools,
		invoker:   opts.Invoker,
		router:    opts.Router,
		completer: opts.Completer,
		logger:    logger.Named("gateway"),
	}
}

// AddToolServer persists a registration and tries to connect it. A failed
// connection leaves the registration in place and reports connected=false.
func (g *Gateway) AddToolServer(ctx context.Context, name, url string) (domain.Registration, bool, error) {
	return g.servers.AddServer(ctx, name, url)
}

func (g *Gateway) RemoveToolServer(ctx context.Context, id string) error {
	if id == "" {
		return domain.E(domain.CodeInvalidArgument, "remove tool server", "id is required", domain.ErrInvalidRequest)
	}
	return g.servers.RemoveServer(ctx, id)
}

func (g *Gateway) ReconnectToolServer(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, domain.E(domain.CodeInvalidArgument, "reconnect tool server", "id is required", domain.ErrInvalidRequest)
	}
	return g.servers.Reconnect(ctx, id)
}

func (g *Gateway) ListToolServers(_ context.Context) ([]domain.ServerStatus, error) {
	return g.servers.List()
}

// ListTools aggregates the tools of every connected server.
func (g *Gateway) ListTools(ctx context.Context) (domain.ToolCatalog, error) {
	tools := g.tools.ListAllTools(ctx)
	if tools == nil {
		tools = []domain.ToolDescriptor{}
	}
	return domain.ToolCatalog{Tools: tools, Fingerprint: hashutil.ToolCatalogETag(g.logger, tools)}, nil
}

func (g *Gateway) InvokeTool(ctx context.Context, serverID, toolName string, args map[string]any) (json.RawMessage, error) {
	return g.invoker.Execute(ctx, serverID, toolName, args)
}

// RouteRequest parses tier and mode and returns the routing decision. A
// denied combination is a decision with Permitted false, not an error.
func (g *Gateway) RouteRequest(_ context.Context, tier, mode string, contextSize int) (domain.RouteDecision, error) {
	req, err := domain.NewRoutingRequest(tier, mode, contextSize)
	if err != nil {
		return domain.RouteDecision{}, err
	}
	return g.router.Route(req), nil
}

func (g *Gateway) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	parsed, err := domain.NewRoutingRequest(string(req.Tier), string(req.Mode), req.ContextSize)
	if err != nil {
		return domain.CompletionResult{}, err
	}
	req.Tier = parsed.Tier
	req.Mode = parsed.Mode
	return g.completer.Complete(ctx, req)
}
