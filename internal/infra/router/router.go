package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/telemetry"
)

// Proxy forwards tool invocations to the live session of the target server.
type Proxy struct {
	handles domain.HandleSource
	timeout time.Duration
	logger  *zap.Logger
}

type ProxyOptions struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewProxy(handles domain.HandleSource, opts ProxyOptions) *Proxy {
	if handles == nil {
		panic("router.Proxy requires a handle source")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultInvokeTimeoutSeconds) * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{
		handles: handles,
		timeout: timeout,
		logger:  logger.Named("proxy"),
	}
}

// Execute invokes toolName on serverID. A server without a live handle fails
// locally with ErrServerNotConnected and no remote call is made. Every remote
// failure is returned as a *domain.ToolInvocationError.
func (p *Proxy) Execute(ctx context.Context, serverID, toolName string, args map[string]any) (json.RawMessage, error) {
	start := time.Now()

	if strings.TrimSpace(toolName) == "" {
		return nil, domain.E(domain.CodeInvalidArgument, "execute tool", "tool name is required", domain.ErrInvalidRequest)
	}

	h, ok := p.handles.Handle(serverID)
	if !ok {
		return nil, domain.E(domain.CodeFailedPrecond, "execute tool", fmt.Sprintf("server %s is not connected", serverID), domain.ErrServerNotConnected)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := h.Session.CallTool(callCtx, toolName, args)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		invokeErr := &domain.ToolInvocationError{ServerID: serverID, Tool: toolName, Cause: err}
		p.logRouteError(ctx, h, toolName, start, invokeErr)
		return nil, invokeErr
	}
	return result, nil
}

func (p *Proxy) logRouteError(ctx context.Context, h domain.SessionHandle, toolName string, start time.Time, err error) {
	fields := []zap.Field{
		telemetry.EventField(telemetry.EventInvokeError),
		telemetry.ServerIDField(h.ServerID),
		telemetry.ServerNameField(h.ServerName),
		telemetry.ToolField(toolName),
		telemetry.DurationField(time.Since(start)),
		zap.Error(err),
	}
	fields = append(fields, telemetry.RequestFieldsFromContext(ctx)...)
	p.logger.Warn("tool invocation failed", fields...)
}

var _ domain.ToolInvoker = (*Proxy)(nil)
