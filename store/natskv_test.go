package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	dandolotest "github.com/Alhambren/Dandolo-Prod-sub001/testing"
	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

func newNATSStore(t *testing.T, bucket string) *NATSKV {
	t.Helper()

	_, nc := dandolotest.StartEmbeddedNATS(t)
	kv := dandolotest.CreateSessionKV(t, nc, bucket)

	return NewNATSKV(kv, dandolotest.NewTestLogger(t), nil)
}

func TestNATSKV_CreateGetRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newNATSStore(t, "natskv-roundtrip")

	s := newSession("conv-123", "venice-a")
	s.Intent = "chat"

	rev, err := st.Create(ctx, s)
	require.NoError(t, err)
	require.NotZero(t, rev)

	got, gotRev, err := st.Get(ctx, "conv-123")
	require.NoError(t, err)
	require.Equal(t, rev, gotRev)
	require.Equal(t, "venice-a", got.ProviderID)
	require.Equal(t, "chat", got.Intent)
	require.True(t, s.AssignedAt.Equal(got.AssignedAt))
}

func TestNATSKV_OpaqueSessionIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newNATSStore(t, "natskv-opaque-ids")

	// Caller-supplied IDs can contain characters a KV key never could.
	id := "user@example.com/chat #7 > *weird*"
	_, err := st.Create(ctx, newSession(id, "p1"))
	require.NoError(t, err)

	got, _, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)

	sessions, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, id, sessions[0].ID)
}

func TestNATSKV_Create_Duplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newNATSStore(t, "natskv-duplicate")

	_, err := st.Create(ctx, newSession("s1", "p1"))
	require.NoError(t, err)

	_, err = st.Create(ctx, newSession("s1", "p2"))
	require.ErrorIs(t, err, types.ErrSessionExists)
}

func TestNATSKV_Update_CAS(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newNATSStore(t, "natskv-cas")

	rev, err := st.Create(ctx, newSession("s1", "p1"))
	require.NoError(t, err)

	newRev, err := st.Update(ctx, newSession("s1", "p2"), rev)
	require.NoError(t, err)
	require.Greater(t, newRev, rev)

	_, err = st.Update(ctx, newSession("s1", "p3"), rev)
	require.ErrorIs(t, err, types.ErrRevisionMismatch)

	got, _, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "p2", got.ProviderID)
}

func TestNATSKV_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newNATSStore(t, "natskv-delete")

	_, err := st.Create(ctx, newSession("s1", "p1"))
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, "s1"))

	_, _, err = st.Get(ctx, "s1")
	require.ErrorIs(t, err, types.ErrSessionNotFound)

	require.ErrorIs(t, st.Delete(ctx, "s1"), types.ErrSessionNotFound)
}

func TestNATSKV_List_EmptyBucket(t *testing.T) {
	t.Parallel()

	st := newNATSStore(t, "natskv-empty-list")

	sessions, err := st.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestNATSKV_List_SkipsDeleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newNATSStore(t, "natskv-list-deleted")

	for _, id := range []string{"a", "b", "c"} {
		_, err := st.Create(ctx, newSession(id, "p1"))
		require.NoError(t, err)
	}
	require.NoError(t, st.Delete(ctx, "b"))

	sessions, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		require.NotEqual(t, "b", s.ID)
	}
}
