package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/modelrouter"
	"aigate/internal/infra/telemetry"
)

type Options struct {
	Router      *modelrouter.Router
	Resolver    *modelrouter.Resolver
	Factory     ModelFactory
	MaxAttempts int
	Metrics     domain.Metrics
	Logger      *zap.Logger
}

// Dispatcher runs chat completions against the routed backend and walks the
// fallback chain on failure.
type Dispatcher struct {
	router      *modelrouter.Router
	resolver    *modelrouter.Resolver
	factory     ModelFactory
	maxAttempts int
	metrics     domain.Metrics
	logger      *zap.Logger
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.Router == nil || opts.Resolver == nil || opts.Factory == nil {
		panic("completion.Dispatcher requires a router, resolver and model factory")
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxAttempts
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		router:      opts.Router,
		resolver:    opts.Resolver,
		factory:     opts.Factory,
		maxAttempts: maxAttempts,
		metrics:     metrics,
		logger:      logger.Named("completion"),
	}
}

// Complete routes req and returns the first successful answer. A tier that
// may not use the mode gets ErrNotPermitted before any backend is contacted.
func (d *Dispatcher) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	messages, err := toMessages(req.Messages)
	if err != nil {
		return domain.CompletionResult{}, err
	}
	contextSize := req.ContextSize
	if contextSize <= 0 {
		contextSize = EstimateContextSize(req.Messages)
	}

	decision := d.router.Route(domain.RoutingRequest{Tier: req.Tier, Mode: req.Mode, ContextSize: contextSize})
	if !decision.Permitted {
		return domain.CompletionResult{}, domain.E(domain.CodePermissionDenied, "complete",
			fmt.Sprintf("tier %s may not use mode %s", req.Tier, req.Mode), domain.ErrNotPermitted)
	}

	logger := telemetry.LoggerWithRequest(ctx, d.logger)
	backend := domain.Backend{ID: decision.Backend, Class: decision.Class}
	attempted := make([]string, 0, d.maxAttempts)
	var lastErr error
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		attempted = append(attempted, backend.ID)
		started := time.Now()
		content, finish, err := d.generate(ctx, backend, messages)
		d.metrics.ObserveCompletionAttempt(backend.ID, backend.Class, err, time.Since(started))
		if err == nil {
			return domain.CompletionResult{
				Backend:      backend.ID,
				Class:        backend.Class,
				Content:      content,
				FinishReason: finish,
				Attempted:    attempted,
			}, nil
		}
		lastErr = err
		logger.Warn("completion attempt failed",
			telemetry.EventField(telemetry.EventCompletionFailed),
			telemetry.BackendField(backend.ID),
			telemetry.ClassField(string(backend.Class)),
			zap.Int("attempt", attempt+1),
			telemetry.DurationField(time.Since(started)),
			zap.Error(err),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.CompletionResult{}, domain.Wrap(domain.CodeCanceled, "complete", ctxErr)
		}
		if attempt+1 < d.maxAttempts {
			next := d.resolver.FallbackFor(backend.ID)
			logger.Info("falling back",
				telemetry.EventField(telemetry.EventFallback),
				zap.String("from", backend.ID),
				zap.String("to", next.ID),
			)
			backend = next
		}
	}

	return domain.CompletionResult{}, domain.E(domain.CodeUnavailable, "complete",
		fmt.Sprintf("attempted %s: %v", strings.Join(attempted, ", "), lastErr),
		fmt.Errorf("%w: %w", domain.ErrBackendsExhausted, lastErr))
}

func (d *Dispatcher) generate(ctx context.Context, backend domain.Backend, messages []*schema.Message) (string, string, error) {
	chatModel, err := d.factory.ChatModel(ctx, backend)
	if err != nil {
		return "", "", err
	}
	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", "", err
	}
	if resp == nil {
		return "", "", errors.New("backend returned an empty response")
	}
	finish := ""
	if resp.ResponseMeta != nil {
		finish = resp.ResponseMeta.FinishReason
	}
	return resp.Content, finish, nil
}
