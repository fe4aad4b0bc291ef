package hashutil

import (
	"fmt"

	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/mcpcodec"
)

// ToolCatalogETag returns a fingerprint for an aggregated tool list and logs
// on failure. An unhashable list yields an empty ETag.
func ToolCatalogETag(logger *zap.Logger, tools []domain.ToolDescriptor) string {
	return hashWithLogger(logger, "tool_catalog", func() (string, error) {
		return mcpcodec.HashToolDescriptors(tools)
	})
}

func hashWithLogger(logger *zap.Logger, label string, fn func() (string, error)) string {
	etag, err := fn()
	if err != nil {
		if logger != nil {
			logger.Warn(fmt.Sprintf("%s hash failed", label), zap.Error(err))
		}
		return ""
	}
	return etag
}
