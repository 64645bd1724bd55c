package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dandolo "github.com/Alhambren/Dandolo-Prod-sub001"
	"github.com/Alhambren/Dandolo-Prod-sub001/directory"
	"github.com/Alhambren/Dandolo-Prod-sub001/store"
	dandolotest "github.com/Alhambren/Dandolo-Prod-sub001/testing"
	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

func activeProvider(id string, capability float64) types.Provider {
	return types.Provider{
		ID:              id,
		Name:            id,
		IsActive:        true,
		CapabilityScore: capability,
		AvgResponseTime: 500 * time.Millisecond,
		VCUBalance:      10,
	}
}

// TestConcurrentChurn drives many goroutines through a durable NATS-backed
// router and checks that every session ends with exactly one stable pin.
func TestConcurrentChurn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, nc := dandolotest.StartEmbeddedNATS(t)

	cfg := dandolo.TestConfig()
	cfg.KVBucket.SessionBucket = "churn-sessions"
	dir := directory.NewStatic([]types.Provider{
		activeProvider("p1", 90), activeProvider("p2", 85), activeProvider("p3", 80),
	})

	router, err := dandolo.NewRouter(ctx, nc, &cfg, dir,
		dandolo.WithLogger(dandolotest.NewTestLogger(t)))
	require.NoError(t, err)
	defer router.Close()

	const (
		sessions  = 20
		callsEach = 8
	)

	// Every goroutine hammers the same session set; each session must
	// resolve to one provider across all callers.
	results := make([][]string, sessions)
	for i := range results {
		results[i] = make([]string, callsEach)
	}

	var wg sync.WaitGroup
	for s := 0; s < sessions; s++ {
		for c := 0; c < callsEach; c++ {
			wg.Add(1)
			go func(s, c int) {
				defer wg.Done()

				providerID, err := router.AssignOrGet(ctx, fmt.Sprintf("conv-%d", s), "chat")
				require.NoError(t, err)
				results[s][c] = providerID
			}(s, c)
		}
	}
	wg.Wait()

	for s, perSession := range results {
		for _, providerID := range perSession {
			require.Equal(t, perSession[0], providerID,
				"session conv-%d observed two providers", s)
		}
	}

	total, err := router.SessionCount(ctx)
	require.NoError(t, err)
	require.Equal(t, sessions, total)
}

// TestSelfHealUnderChurn deactivates a provider mid-traffic and checks that
// its sessions silently re-assign to the surviving fleet on next use.
func TestSelfHealUnderChurn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, nc := dandolotest.StartEmbeddedNATS(t)

	cfg := dandolo.TestConfig()
	cfg.KVBucket.SessionBucket = "heal-sessions"
	dir := directory.NewStatic([]types.Provider{
		activeProvider("p1", 90), activeProvider("p2", 85),
	})

	router, err := dandolo.NewRouter(ctx, nc, &cfg, dir)
	require.NoError(t, err)
	defer router.Close()

	pins := make(map[string]string)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("conv-%d", i)
		providerID, err := router.AssignOrGet(ctx, id, "chat")
		require.NoError(t, err)
		pins[id] = providerID
	}

	require.True(t, dir.SetActive("p1", false))

	for id, was := range pins {
		now, err := router.AssignOrGet(ctx, id, "chat")
		require.NoError(t, err)
		require.Equal(t, "p2", now)

		if was == "p1" {
			// Healed sessions must not re-appear under the dead provider.
			current, found, err := router.GetCurrent(ctx, id)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, "p2", current)
		}
	}

	orphans, err := router.ListByProvider(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, orphans)
}

// TestRebalanceOverDurableStore seeds a skewed fleet directly in the KV
// bucket, then runs analysis and rebalancing through the public surface.
func TestRebalanceOverDurableStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, nc := dandolotest.StartEmbeddedNATS(t)
	kv := dandolotest.CreateSessionKV(t, nc, "skewed-sessions")
	st := store.NewNATSKV(kv, dandolotest.NewTestLogger(t), nil)

	idle := time.Now().Add(-time.Hour)
	for i := 0; i < 24; i++ {
		_, err := st.Create(ctx, &types.Session{
			ID:         fmt.Sprintf("conv-%d", i),
			ProviderID: "p1",
			Intent:     "chat",
			AssignedAt: idle,
			LastUsed:   idle,
		})
		require.NoError(t, err)
	}

	cfg := dandolo.DefaultConfig()
	dir := directory.NewStatic([]types.Provider{
		activeProvider("p1", 90), activeProvider("p2", 85), activeProvider("p3", 80),
	})

	router, err := dandolo.NewRouterWithStore(&cfg, st, dir,
		dandolo.WithLogger(dandolotest.NewTestLogger(t)))
	require.NoError(t, err)
	defer router.Close()

	report := router.AnalyzeDistribution(ctx)
	require.True(t, report.RebalanceRecommended)
	require.Equal(t, []string{"p1"}, report.Overloaded)

	result := router.ExecuteRebalancing(ctx, false, 0)
	require.True(t, result.Performed)
	require.Equal(t, cfg.Rebalance.MaxSessions, result.MigratedCount())
	require.Less(t, result.After.Variance, result.Before.Variance)

	// The moves are durable: a fresh router over the same bucket sees them.
	router2, err := dandolo.NewRouterWithStore(&cfg, store.NewNATSKV(kv, nil, nil), dir)
	require.NoError(t, err)
	defer router2.Close()

	onP1, err := router2.ListByProvider(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, onP1, 24-cfg.Rebalance.MaxSessions)

	total, err := router2.SessionCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 24, total)
}
