package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldServerID   = "serverID"
	FieldServerName = "serverName"
	FieldTool       = "tool"
	FieldStatus     = "status"
	FieldBackend    = "backend"
	FieldClass      = "class"
	FieldDurationMs = "duration_ms"
	FieldRequestID  = "request_id"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
)

const (
	EventConnectAttempt   = "connect_attempt"
	EventConnectSuccess   = "connect_success"
	EventConnectFailure   = "connect_failure"
	EventConnectDiscarded = "connect_discarded"
	EventDisconnect       = "disconnect"
	EventCloseFailure     = "close_failure"
	EventCatalogFailure   = "catalog_failure"
	EventInvokeError      = "invoke_error"
	EventRouteDenied      = "route_denied"
	EventFallback         = "fallback"
	EventUnknownBackend   = "unknown_backend"
	EventCompletionFailed = "completion_failure"
	EventHTTPRequest      = "http_request"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ServerIDField(serverID string) zap.Field {
	return zap.String(FieldServerID, serverID)
}

func ServerNameField(serverName string) zap.Field {
	return zap.String(FieldServerName, serverName)
}

func ToolField(tool string) zap.Field {
	return zap.String(FieldTool, tool)
}

func StatusField(status string) zap.Field {
	return zap.String(FieldStatus, status)
}

func BackendField(backend string) zap.Field {
	return zap.String(FieldBackend, backend)
}

func ClassField(class string) zap.Field {
	return zap.String(FieldClass, class)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func RequestIDField(value string) zap.Field {
	return zap.String(FieldRequestID, value)
}

func TraceIDField(value string) zap.Field {
	return zap.String(FieldTraceID, value)
}

func SpanIDField(value string) zap.Field {
	return zap.String(FieldSpanID, value)
}
