package router

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"aigate/internal/domain"
)

// MetricProxy records the outcome and latency of every invocation. Server
// names are caller supplied, so they are kept out of the labels.
type MetricProxy struct {
	inner   domain.ToolInvoker
	metrics domain.Metrics
}

func NewMetricProxy(inner domain.ToolInvoker, metrics domain.Metrics) *MetricProxy {
	return &MetricProxy{
		inner:   inner,
		metrics: metrics,
	}
}

func (r *MetricProxy) Execute(ctx context.Context, serverID, toolName string, args map[string]any) (json.RawMessage, error) {
	start := time.Now()
	resp, err := r.inner.Execute(ctx, serverID, toolName, args)
	r.observe(time.Since(start), err)
	return resp, err
}

func (r *MetricProxy) observe(duration time.Duration, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveInvoke(domain.InvokeMetric{
		Status:   classifyInvokeResult(err),
		Duration: duration,
	})
}

func classifyInvokeResult(err error) domain.InvokeStatus {
	if err == nil {
		return domain.InvokeStatusSuccess
	}
	if errors.Is(err, domain.ErrServerNotConnected) {
		return domain.InvokeStatusNotConnected
	}
	if errors.Is(err, domain.ErrInvalidRequest) {
		return domain.InvokeStatusInvalid
	}
	if errors.Is(err, domain.ErrToolInvocationFailed) {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.InvokeStatusTimeout
		}
		return domain.InvokeStatusFailed
	}
	return domain.InvokeStatusUnknown
}

var _ domain.ToolInvoker = (*MetricProxy)(nil)
