package app

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/catalog"
	"aigate/internal/infra/modelrouter"
)

// ValidationSummary reports what a configuration check looked at.
type ValidationSummary struct {
	Registry      string
	Registrations int
	Backends      []domain.Backend
}

// ValidateConfig checks cfg without connecting to tool servers. An existing
// registry is opened and decoded; a missing one is reported as empty.
func ValidateConfig(ctx context.Context, cfg domain.Config, logger *zap.Logger) (ValidationSummary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	summary := ValidationSummary{Registry: cfg.Registry.Backend + ":" + cfg.Registry.Path}

	backends, err := modelrouter.NewBackendCatalog(cfg.Routing.Backends)
	if err != nil {
		return summary, err
	}
	summary.Backends = backends.Backends()

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if _, err := os.Stat(cfg.Registry.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return summary, nil
		}
		return summary, err
	}
	store, err := catalog.OpenStore(cfg.Registry, logger)
	if err != nil {
		return summary, err
	}
	defer func() { _ = store.Close() }()
	regs, err := store.Load()
	if err != nil {
		return summary, err
	}
	summary.Registrations = len(regs)

	logger.Info("configuration validated",
		zap.String("registry", summary.Registry),
		zap.Int("servers", summary.Registrations),
	)
	return summary, nil
}
