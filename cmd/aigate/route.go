package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"aigate/internal/domain"
	"aigate/internal/infra/modelrouter"
)

type routeFlags struct {
	tier        string
	mode        string
	contextSize int
}

// newRouteCmd routes a request offline against the configured backend table.
func newRouteCmd(opts *serveOptions) *cobra.Command {
	flags := &routeFlags{}
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Print the routing decision for a tier, mode and context size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), opts)
			if err != nil {
				return err
			}
			decision, err := routeOffline(cfg, flags)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(decision, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.tier, "tier", "free", "subscription tier")
	cmd.Flags().StringVar(&flags.mode, "mode", "chat", "request mode")
	cmd.Flags().IntVar(&flags.contextSize, "context-size", 0, "estimated context size in tokens")
	return cmd
}

func routeOffline(cfg domain.Config, flags *routeFlags) (domain.RouteDecision, error) {
	req, err := domain.NewRoutingRequest(flags.tier, flags.mode, flags.contextSize)
	if err != nil {
		return domain.RouteDecision{}, err
	}
	backends, err := modelrouter.NewBackendCatalog(cfg.Routing.Backends)
	if err != nil {
		return domain.RouteDecision{}, err
	}
	router := modelrouter.NewRouter(backends, modelrouter.RouterOptions{LargeContextThreshold: cfg.Routing.LargeContextThreshold})
	return router.Route(req), nil
}
