package modelrouter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aigate/internal/domain"
)

func TestSelect_Table(t *testing.T) {
	type outcome struct {
		class domain.CapabilityClass
		ok    bool
	}
	denied := outcome{}
	want := map[domain.Tier]map[domain.Mode]outcome{
		domain.TierFree: {
			domain.ModeChat:     {domain.ClassNano, true},
			domain.ModeCode:     {domain.ClassMini, true},
			domain.ModeRedesign: denied,
			domain.ModeDeepDive: {domain.ClassMini, true},
			domain.ModeRAG:      {domain.ClassMini, true},
		},
		domain.TierPro: {
			domain.ModeChat:     {domain.ClassMini, true},
			domain.ModeCode:     {domain.ClassCoder, true},
			domain.ModeRedesign: {domain.ClassStandard, true},
			domain.ModeDeepDive: {domain.ClassReasoning, true},
			domain.ModeRAG:      {domain.ClassStandard, true},
		},
		domain.TierCreator: {
			domain.ModeChat:     {domain.ClassStandard, true},
			domain.ModeCode:     {domain.ClassCoder, true},
			domain.ModeRedesign: {domain.ClassVision, true},
			domain.ModeDeepDive: {domain.ClassReasoning, true},
			domain.ModeRAG:      {domain.ClassStandard, true},
		},
	}

	for _, tier := range domain.Tiers {
		for _, mode := range domain.Modes {
			class, ok := Select(domain.RoutingRequest{Tier: tier, Mode: mode, ContextSize: 10}, 0)
			exp := want[tier][mode]
			require.Equal(t, exp.ok, ok, "%s/%s", tier, mode)
			if exp.ok {
				require.Equal(t, exp.class, class, "%s/%s", tier, mode)
			}
		}
	}
}

func TestSelect_RAGThreshold(t *testing.T) {
	for _, tier := range domain.Tiers {
		class, ok := Select(domain.RoutingRequest{Tier: tier, Mode: domain.ModeRAG, ContextSize: domain.DefaultLargeContextThreshold + 1}, 0)
		require.True(t, ok)
		require.Equal(t, domain.ClassLargeContext, class, string(tier))

		class, ok = Select(domain.RoutingRequest{Tier: tier, Mode: domain.ModeRAG, ContextSize: domain.DefaultLargeContextThreshold}, 0)
		require.True(t, ok)
		require.NotEqual(t, domain.ClassLargeContext, class, "threshold itself is not large context")
	}

	class, ok := Select(domain.RoutingRequest{Tier: domain.TierFree, Mode: domain.ModeRAG, ContextSize: 501}, 500)
	require.True(t, ok)
	require.Equal(t, domain.ClassLargeContext, class)
}

func TestSelect_ContextSizeOnlyMattersForRAG(t *testing.T) {
	for _, tier := range domain.Tiers {
		for _, mode := range domain.Modes {
			if mode == domain.ModeRAG {
				continue
			}
			small, okSmall := Select(domain.RoutingRequest{Tier: tier, Mode: mode}, 0)
			large, okLarge := Select(domain.RoutingRequest{Tier: tier, Mode: mode, ContextSize: 10_000_000}, 0)
			require.Equal(t, okSmall, okLarge)
			require.Equal(t, small, large)
		}
	}
}

func TestSelect_Deterministic(t *testing.T) {
	req := domain.RoutingRequest{Tier: domain.TierPro, Mode: domain.ModeDeepDive, ContextSize: 42}
	first, _ := Select(req, 0)
	for i := 0; i < 100; i++ {
		got, ok := Select(req, 0)
		require.True(t, ok)
		require.Equal(t, first, got)
	}
}
