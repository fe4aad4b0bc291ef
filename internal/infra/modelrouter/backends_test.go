package modelrouter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aigate/internal/domain"
)

func TestNewBackendCatalog_Defaults(t *testing.T) {
	catalog, err := NewBackendCatalog(domain.DefaultBackends)
	require.NoError(t, err)

	backends := catalog.Backends()
	require.Len(t, backends, len(domain.CapabilityClasses))
	for i, class := range domain.CapabilityClasses {
		require.Equal(t, class, backends[i].Class)
		got, ok := catalog.Lookup(backends[i].ID)
		require.True(t, ok)
		require.Equal(t, class, got.Class)
	}

	_, ok := catalog.Lookup("nope")
	require.False(t, ok)
}

func TestNewBackendCatalog_Validation(t *testing.T) {
	ids := map[domain.CapabilityClass]string{}
	for class, id := range domain.DefaultBackends {
		ids[class] = id
	}
	delete(ids, domain.ClassVision)
	ids[domain.ClassCoder] = ids[domain.ClassStandard]
	ids["turbo"] = "x"

	_, err := NewBackendCatalog(ids)
	require.Error(t, err)
	require.ErrorContains(t, err, "backend for class vision is required")
	require.ErrorContains(t, err, "is bound to both standard and coder")
	require.ErrorContains(t, err, `unknown capability class "turbo"`)
}
