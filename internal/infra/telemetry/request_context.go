package telemetry

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id on API requests and responses.
const RequestIDHeader = "x-request-id"

const maxRequestIDLength = 128

type requestMetaKey struct{}

// RequestMeta identifies one API request across gateway log lines.
type RequestMeta struct {
	RequestID string
	TraceID   string
	SpanID    string
}

func (m RequestMeta) empty() bool {
	return m == RequestMeta{}
}

// NewRequestID returns a time-ordered id so log lines sort by arrival.
func NewRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// RequestIDFromHeader returns the caller's request id, or "" when it is
// missing, too long, or contains anything other than printable ASCII.
func RequestIDFromHeader(header http.Header) string {
	id := strings.TrimSpace(header.Get(RequestIDHeader))
	if len(id) > maxRequestIDLength {
		return ""
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '!' || id[i] > '~' {
			return ""
		}
	}
	return id
}

// EnsureRequestMeta attaches request metadata to ctx. An empty requestID
// keeps the id already on ctx, or mints a new one.
func EnsureRequestMeta(ctx context.Context, requestID string) (context.Context, RequestMeta) {
	if ctx == nil {
		ctx = context.Background()
	}
	if requestID == "" {
		if existing, ok := RequestMetaFromContext(ctx); ok {
			requestID = existing.RequestID
		}
	}
	if requestID == "" {
		requestID = NewRequestID()
	}
	meta := RequestMeta{RequestID: requestID}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		meta.TraceID = spanCtx.TraceID().String()
		meta.SpanID = spanCtx.SpanID().String()
	}
	return context.WithValue(ctx, requestMetaKey{}, meta), meta
}

func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok && !meta.empty()
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	meta, ok := RequestMetaFromContext(ctx)
	return meta.RequestID, ok && meta.RequestID != ""
}

// RequestFieldsFromContext returns the zap fields for the request on ctx.
func RequestFieldsFromContext(ctx context.Context) []zap.Field {
	meta, ok := RequestMetaFromContext(ctx)
	if !ok {
		return nil
	}
	fields := []zap.Field{RequestIDField(meta.RequestID)}
	if meta.TraceID != "" {
		fields = append(fields, TraceIDField(meta.TraceID), SpanIDField(meta.SpanID))
	}
	return fields
}

// LoggerWithRequest scopes base to the request on ctx.
func LoggerWithRequest(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := RequestFieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
