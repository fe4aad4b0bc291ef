package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"aigate/internal/infra/telemetry"
)

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	return telemetry.ListenAndServe(ctx, "api", addr, handler, logger)
}
