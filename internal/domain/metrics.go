package domain

import "time"

// ConnectOutcome labels the result of a connection attempt.
type ConnectOutcome string

const (
	ConnectOutcomeSuccess  ConnectOutcome = "success"
	ConnectOutcomeFailure  ConnectOutcome = "failure"
	ConnectOutcomeCanceled ConnectOutcome = "canceled"
)

// InvokeStatus labels the outcome of a proxied tool call.
type InvokeStatus string

const (
	InvokeStatusSuccess      InvokeStatus = "success"
	InvokeStatusNotConnected InvokeStatus = "not_connected"
	InvokeStatusInvalid      InvokeStatus = "invalid_request"
	InvokeStatusTimeout      InvokeStatus = "timeout"
	InvokeStatusFailed       InvokeStatus = "invocation_failed"
	InvokeStatusUnknown      InvokeStatus = "unknown"
)

// InvokeMetric captures metrics for a proxied tool call.
type InvokeMetric struct {
	Status   InvokeStatus
	Duration time.Duration
}

// Metrics records operational metrics for the dispatch core.
type Metrics interface {
	ObserveConnect(outcome ConnectOutcome, duration time.Duration)
	SetLiveConnections(count int)
	ObserveInvoke(metric InvokeMetric)
	ObserveCatalogFailure()
	ObserveRouteSelection(tier Tier, mode Mode, class CapabilityClass, permitted bool)
	ObserveFallback(from, to CapabilityClass)
	ObserveCompletionAttempt(backend string, class CapabilityClass, err error, duration time.Duration)
}
