package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aigate/internal/domain"
	"aigate/internal/infra/mcpcodec"
	"aigate/internal/infra/telemetry"
)

type Options struct {
	Handles     domain.HandleSource
	Metrics     domain.Metrics
	Logger      *zap.Logger
	ListTimeout time.Duration
	// Concurrency caps parallel catalog queries; zero means one per server.
	Concurrency int
}

// Aggregator builds the unified tool catalog from every live session on
// demand. Nothing is cached between calls.
type Aggregator struct {
	handles     domain.HandleSource
	metrics     domain.Metrics
	logger      *zap.Logger
	listTimeout time.Duration
	concurrency int
}

func New(opts Options) *Aggregator {
	if opts.Handles == nil {
		panic("aggregator requires a handle source")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	timeout := opts.ListTimeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultListToolsTimeoutSeconds) * time.Second
	}
	return &Aggregator{
		handles:     opts.Handles,
		metrics:     metrics,
		logger:      logger.Named("aggregator"),
		listTimeout: timeout,
		concurrency: opts.Concurrency,
	}
}

// ListAllTools queries every live server concurrently and concatenates the
// results in handle order. Servers that fail or time out are logged and
// skipped, so a partial catalog is a normal result.
func (a *Aggregator) ListAllTools(ctx context.Context) []domain.ToolDescriptor {
	handles := a.handles.Handles()
	if len(handles) == 0 {
		return []domain.ToolDescriptor{}
	}

	perServer := make([][]domain.ToolDescriptor, len(handles))
	var group errgroup.Group
	if a.concurrency > 0 {
		group.SetLimit(a.concurrency)
	}
	for i, h := range handles {
		group.Go(func() error {
			perServer[i] = a.listServer(ctx, h)
			return nil
		})
	}
	_ = group.Wait()

	total := 0
	for _, tools := range perServer {
		total += len(tools)
	}
	out := make([]domain.ToolDescriptor, 0, total)
	for _, tools := range perServer {
		out = append(out, tools...)
	}
	return out
}

func (a *Aggregator) listServer(ctx context.Context, h domain.SessionHandle) []domain.ToolDescriptor {
	listCtx, cancel := context.WithTimeout(ctx, a.listTimeout)
	defer cancel()

	started := time.Now()
	defs, err := h.Session.ListTools(listCtx)
	if err != nil {
		a.metrics.ObserveCatalogFailure()
		a.logger.Warn("list tools failed; server skipped",
			telemetry.EventField(telemetry.EventCatalogFailure),
			telemetry.ServerIDField(h.ServerID),
			telemetry.ServerNameField(h.ServerName),
			telemetry.DurationField(time.Since(started)),
			zap.Error(err),
		)
		return nil
	}

	out := make([]domain.ToolDescriptor, 0, len(defs))
	for _, def := range defs {
		schema, err := mcpcodec.SchemaFromInput(def.InputSchema)
		if err != nil {
			a.logger.Warn("tool input schema unreadable",
				telemetry.ServerIDField(h.ServerID),
				telemetry.ToolField(def.Name),
				zap.Error(err),
			)
		}
		out = append(out, domain.ToolDescriptor{
			Name:        def.Name,
			Description: def.Description,
			Schema:      schema,
			ServerID:    h.ServerID,
			ServerName:  h.ServerName,
		})
	}
	return out
}
