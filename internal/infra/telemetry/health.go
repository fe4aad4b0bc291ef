package telemetry

import (
	"context"
	"time"
)

// HealthSource reports how many tool servers are registered and how many
// have a live session.
type HealthSource interface {
	HealthCounts(ctx context.Context) (registered int, live int, err error)
}

type HealthReport struct {
	Status     string  `json:"status"`
	Registered int     `json:"registered"`
	Live       int     `json:"live"`
	LiveRatio  float64 `json:"liveRatio"`
	Error      string  `json:"error,omitempty"`
}

// HealthTracker turns a HealthSource into a /healthz report. Partial
// connectivity is reported but does not fail the check; only an unreadable
// registry does.
type HealthTracker struct {
	source  HealthSource
	timeout time.Duration
}

func NewHealthTracker(source HealthSource) *HealthTracker {
	return &HealthTracker{source: source, timeout: 2 * time.Second}
}

func (h *HealthTracker) Report() HealthReport {
	if h == nil || h.source == nil {
		return HealthReport{Status: "ok", LiveRatio: 1}
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	registered, live, err := h.source.HealthCounts(ctx)
	if err != nil {
		return HealthReport{Status: "error", Error: err.Error()}
	}
	ratio := 1.0
	if registered > 0 {
		ratio = float64(live) / float64(registered)
	}
	return HealthReport{
		Status:     "ok",
		Registered: registered,
		Live:       live,
		LiveRatio:  ratio,
	}
}
