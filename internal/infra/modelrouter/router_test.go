package modelrouter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"aigate/internal/domain"
	"aigate/internal/infra/telemetry"
)

func TestRouter_Route(t *testing.T) {
	catalog, err := NewBackendCatalog(domain.DefaultBackends)
	require.NoError(t, err)
	registry := prometheus.NewRegistry()
	router := NewRouter(catalog, RouterOptions{Metrics: telemetry.NewPrometheusMetrics(registry)})

	decision := router.Route(domain.RoutingRequest{Tier: domain.TierPro, Mode: domain.ModeCode})
	require.Equal(t, domain.RouteDecision{
		Permitted: true,
		Class:     domain.ClassCoder,
		Backend:   domain.DefaultBackends[domain.ClassCoder],
	}, decision)

	decision = router.Route(domain.RoutingRequest{Tier: domain.TierFree, Mode: domain.ModeRedesign})
	require.Equal(t, domain.RouteDecision{Permitted: false}, decision)

	require.Equal(t, 2, testutil.CollectAndCount(registry, "aigate_route_selections_total"))
}

func TestRouter_CustomThreshold(t *testing.T) {
	catalog, err := NewBackendCatalog(domain.DefaultBackends)
	require.NoError(t, err)
	router := NewRouter(catalog, RouterOptions{LargeContextThreshold: 1000})
	require.Equal(t, 1000, router.Threshold())

	decision := router.Route(domain.RoutingRequest{Tier: domain.TierFree, Mode: domain.ModeRAG, ContextSize: 1001})
	require.Equal(t, domain.ClassLargeContext, decision.Class)
}
