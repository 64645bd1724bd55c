package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

func TestStatic_ListActiveProviders(t *testing.T) {
	t.Parallel()

	dir := NewStatic([]types.Provider{
		{ID: "p1", IsActive: true},
		{ID: "p2", IsActive: false},
		{ID: "p3", IsActive: true},
	})

	active, err := dir.ListActiveProviders(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, p := range active {
		require.True(t, p.IsActive)
	}
}

func TestStatic_GetProvider_NotFound(t *testing.T) {
	t.Parallel()

	dir := NewStatic(nil)
	_, err := dir.GetProvider(context.Background(), "missing")
	require.ErrorIs(t, err, types.ErrProviderNotFound)
}

func TestStatic_SetActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := NewStatic([]types.Provider{{ID: "p1", IsActive: true}})

	require.True(t, dir.SetActive("p1", false))
	p, err := dir.GetProvider(ctx, "p1")
	require.NoError(t, err)
	require.False(t, p.IsActive)

	active, err := dir.ListActiveProviders(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	require.False(t, dir.SetActive("missing", true))
}

func TestStatic_UpsertAndRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := NewStatic(nil)
	dir.Upsert(types.Provider{ID: "p1", Name: "first", IsActive: true})
	dir.Upsert(types.Provider{ID: "p1", Name: "renamed", IsActive: true})

	p, err := dir.GetProvider(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "renamed", p.Name)

	dir.Remove("p1")
	_, err = dir.GetProvider(ctx, "p1")
	require.ErrorIs(t, err, types.ErrProviderNotFound)
}
