package modelrouter

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"aigate/internal/domain"
)

func TestFallback_Table(t *testing.T) {
	want := map[domain.CapabilityClass]domain.CapabilityClass{
		domain.ClassReasoning:    domain.ClassStandard,
		domain.ClassVision:       domain.ClassStandard,
		domain.ClassLargeContext: domain.ClassStandard,
		domain.ClassCoder:        domain.ClassStandard,
		domain.ClassStandard:     domain.ClassMini,
		domain.ClassMini:         domain.ClassNano,
		domain.ClassNano:         domain.ClassMini,
	}
	for _, class := range domain.CapabilityClasses {
		require.Equal(t, want[class], Fallback(class), string(class))
	}
}

func TestFallback_ChainsReachFloorQuickly(t *testing.T) {
	for _, class := range domain.CapabilityClasses {
		current := class
		steps := 0
		for current != domain.ClassNano && current != domain.ClassMini {
			current = Fallback(current)
			steps++
			require.LessOrEqual(t, steps, 3, "chain from %s did not reach the floor", class)
		}
	}
}

func TestFallback_NeverReturnsSameClass(t *testing.T) {
	for _, class := range domain.CapabilityClasses {
		require.NotEqual(t, class, Fallback(class))
	}
}

func TestResolver_FallbackFor(t *testing.T) {
	catalog, err := NewBackendCatalog(domain.DefaultBackends)
	require.NoError(t, err)
	resolver := NewResolver(catalog, nil, zap.NewNop())

	got := resolver.FallbackFor(domain.DefaultBackends[domain.ClassReasoning])
	require.Equal(t, domain.Backend{ID: domain.DefaultBackends[domain.ClassStandard], Class: domain.ClassStandard}, got)

	got = resolver.FallbackFor(domain.DefaultBackends[domain.ClassNano])
	require.Equal(t, domain.ClassMini, got.Class)
}

func TestResolver_UnknownBackendFallsBackToNanoWithWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	catalog, err := NewBackendCatalog(domain.DefaultBackends)
	require.NoError(t, err)
	resolver := NewResolver(catalog, nil, zap.New(core))

	got := resolver.FallbackFor("claude-3-opus")
	require.Equal(t, domain.ClassNano, got.Class)
	require.Equal(t, domain.DefaultBackends[domain.ClassNano], got.ID)

	entries := logs.FilterMessage("unknown backend id; falling back to nano").All()
	require.Len(t, entries, 1)
	require.Equal(t, "claude-3-opus", entries[0].ContextMap()["backend"])
}
