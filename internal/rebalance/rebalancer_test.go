package rebalance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Alhambren/Dandolo-Prod-sub001/directory"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/analyzer"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/metrics"
	"github.com/Alhambren/Dandolo-Prod-sub001/store"
	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// storeCounts adapts a SessionStore into the analyzer's counter.
type storeCounts struct {
	store types.SessionStore
}

func (c storeCounts) CountsByProvider(ctx context.Context) (map[string]int, int, error) {
	sessions, err := c.store.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[string]int)
	for _, s := range sessions {
		counts[s.ProviderID]++
	}

	return counts, len(sessions), nil
}

func activeProvider(id string) types.Provider {
	return types.Provider{
		ID:              id,
		Name:            id,
		IsActive:        true,
		CapabilityScore: 80,
		AvgResponseTime: 500 * time.Millisecond,
		VCUBalance:      10,
	}
}

type fixture struct {
	rebalancer *Rebalancer
	store      *store.Memory
	directory  *directory.Static
	now        time.Time
}

func newFixture(t *testing.T, providers ...types.Provider) *fixture {
	t.Helper()

	st := store.NewMemory()
	dir := directory.NewStatic(providers)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	an, err := analyzer.New(&analyzer.Config{
		Sessions:  storeCounts{store: st},
		Directory: dir,
		Now:       clock,
	})
	require.NoError(t, err)

	rb, err := New(&Config{
		Store:     st,
		Directory: dir,
		Analyzer:  an,
		Now:       clock,
	})
	require.NoError(t, err)

	return &fixture{rebalancer: rb, store: st, directory: dir, now: now}
}

// seedSessions creates n sessions on a provider with the given idle age.
func (f *fixture) seedSessions(t *testing.T, providerID string, n int, idleFor time.Duration) {
	t.Helper()

	for i := 0; i < n; i++ {
		used := f.now.Add(-idleFor)
		_, err := f.store.Create(context.Background(), &types.Session{
			ID:         fmt.Sprintf("%s-conv-%d-%s", providerID, i, idleFor),
			ProviderID: providerID,
			Intent:     "chat",
			AssignedAt: used,
			LastUsed:   used,
		})
		require.NoError(t, err)
	}
}

func (f *fixture) countsByProvider(t *testing.T) map[string]int {
	t.Helper()

	counts, _, err := storeCounts{store: f.store}.CountsByProvider(context.Background())
	require.NoError(t, err)

	return counts
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(&Config{})
	require.ErrorIs(t, err, types.ErrSessionStoreRequired)

	_, err = New(&Config{Store: store.NewMemory()})
	require.ErrorIs(t, err, types.ErrProviderDirectoryRequired)

	_, err = New(&Config{Store: store.NewMemory(), Directory: directory.NewStatic(nil)})
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestExecute_NotRecommendedReturnsEarly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, activeProvider("p1"), activeProvider("p2"))
	f.seedSessions(t, "p1", 3, time.Hour)
	f.seedSessions(t, "p2", 3, time.Hour)

	result := f.rebalancer.Execute(context.Background(), false, 0)
	require.NotEmpty(t, result.RunID)
	require.False(t, result.Performed)
	require.Empty(t, result.Migrations)
	require.NotEmpty(t, result.Reason)
	require.Equal(t, result.Before, result.After)
}

func TestExecute_MigratesWithinBudget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// All 30 sessions on p1, everyone idle for an hour. The analyzer
	// proposes more moves than the default budget of 10 allows.
	f := newFixture(t, activeProvider("p1"), activeProvider("p2"), activeProvider("p3"), activeProvider("p4"))
	f.seedSessions(t, "p1", 30, time.Hour)

	result := f.rebalancer.Execute(ctx, false, 0)
	require.True(t, result.Performed)
	require.Len(t, result.Migrations, DefaultMaxSessions)
	require.Equal(t, DefaultMaxSessions, result.MigratedCount())

	counts := f.countsByProvider(t)
	require.Equal(t, 20, counts["p1"])
	require.Equal(t, 10, counts["p2"]+counts["p3"]+counts["p4"])

	// Migrated sessions get fresh timestamps on their new provider.
	sessions, err := f.store.List(ctx)
	require.NoError(t, err)
	for _, s := range sessions {
		if s.ProviderID != "p1" {
			require.True(t, s.AssignedAt.Equal(f.now))
			require.True(t, s.LastUsed.Equal(f.now))
		}
	}

	require.Less(t, result.After.Variance, result.Before.Variance)
	require.Greater(t, result.ImprovementPct, 0.0)
}

func TestExecute_DryRunDoesNotMutate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t, activeProvider("p1"), activeProvider("p2"), activeProvider("p3"))
	f.seedSessions(t, "p1", 20, time.Hour)

	result := f.rebalancer.Execute(ctx, true, 4)
	require.True(t, result.Performed)
	require.True(t, result.DryRun)
	require.Len(t, result.Migrations, 4)
	require.Equal(t, 4, result.MigratedCount())

	// The plan is reported but every session stays put.
	counts := f.countsByProvider(t)
	require.Equal(t, map[string]int{"p1": 20}, counts)
	require.Less(t, result.After.Variance, result.Before.Variance)
}

func TestExecute_SkipsRecentlyUsedSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// 20 sessions on p1 but only 4 idle past the threshold; the rest were
	// used seconds ago and must never move.
	f := newFixture(t, activeProvider("p1"), activeProvider("p2"), activeProvider("p3"))
	f.seedSessions(t, "p1", 4, time.Hour)
	f.seedSessions(t, "p1", 16, 30*time.Second)

	result := f.rebalancer.Execute(ctx, false, 0)
	require.True(t, result.Performed)
	require.Len(t, result.Migrations, 4)
	require.Equal(t, 4, result.MigratedCount())

	sessions, err := f.store.List(ctx)
	require.NoError(t, err)
	for _, s := range sessions {
		if s.ProviderID != "p1" {
			// Only the hour-idle seeds carry the idle marker in their ID.
			require.Contains(t, s.ID, "1h0m0s")
		}
	}
}

// cannedAnalyzer returns a fixed report, standing in for an analysis that
// ran moments before the fleet changed.
type cannedAnalyzer struct {
	report *types.DistributionReport
}

func (c cannedAnalyzer) Analyze(context.Context) *types.DistributionReport {
	return c.report
}

func TestExecute_SkipsInactiveTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := store.NewMemory()
	inactive := activeProvider("p2")
	inactive.IsActive = false
	dir := directory.NewStatic([]types.Provider{activeProvider("p1"), inactive})

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := st.Create(ctx, &types.Session{
			ID:         fmt.Sprintf("conv-%d", i),
			ProviderID: "p1",
			AssignedAt: now.Add(-time.Hour),
			LastUsed:   now.Add(-time.Hour),
		})
		require.NoError(t, err)
	}

	rb, err := New(&Config{
		Store:     st,
		Directory: dir,
		Analyzer: cannedAnalyzer{report: &types.DistributionReport{
			RebalanceRecommended: true,
			Reason:               "distribution skewed",
			Providers: []types.ProviderLoad{
				{ProviderID: "p1", SessionCount: 3},
				{ProviderID: "p2", SessionCount: 0},
			},
			Opportunities: []types.MigrationOpportunity{
				{FromProviderID: "p1", ToProviderID: "p2", SessionsToMove: 3},
			},
		}},
		Now: func() time.Time { return now },
	})
	require.NoError(t, err)

	result := rb.Execute(ctx, false, 0)
	require.True(t, result.Performed)
	require.Len(t, result.Migrations, 3)
	require.Zero(t, result.MigratedCount())
	for _, m := range result.Migrations {
		require.Equal(t, reasonTargetInactive, m.Reason)
	}

	// Failed migrations leave the estimate at the analyzer's snapshot.
	require.Equal(t, result.Before.Counts, result.After.Counts)

	sessions, err := st.List(ctx)
	require.NoError(t, err)
	for _, s := range sessions {
		require.Equal(t, "p1", s.ProviderID)
	}
}

// contendedStore fails the first CAS update, as if a request handler touched
// the session between the idle snapshot and the migration write.
type contendedStore struct {
	types.SessionStore
	failed bool
}

func (c *contendedStore) Update(ctx context.Context, session *types.Session, revision uint64) (uint64, error) {
	if !c.failed {
		c.failed = true
		return 0, types.ErrRevisionMismatch
	}

	return c.SessionStore.Update(ctx, session, revision)
}

func TestExecute_LosingCASRecordsFailureAndContinues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := &contendedStore{SessionStore: store.NewMemory()}
	dir := directory.NewStatic([]types.Provider{activeProvider("p1"), activeProvider("p2")})

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := st.Create(ctx, &types.Session{
			ID:         fmt.Sprintf("conv-%d", i),
			ProviderID: "p1",
			AssignedAt: now.Add(-time.Hour),
			LastUsed:   now.Add(-time.Hour),
		})
		require.NoError(t, err)
	}

	rb, err := New(&Config{
		Store:     st,
		Directory: dir,
		Analyzer: cannedAnalyzer{report: &types.DistributionReport{
			RebalanceRecommended: true,
			Reason:               "distribution skewed",
			Providers: []types.ProviderLoad{
				{ProviderID: "p1", SessionCount: 3},
				{ProviderID: "p2", SessionCount: 0},
			},
			Opportunities: []types.MigrationOpportunity{
				{FromProviderID: "p1", ToProviderID: "p2", SessionsToMove: 3},
			},
		}},
		Now: func() time.Time { return now },
	})
	require.NoError(t, err)

	result := rb.Execute(ctx, false, 0)
	require.Len(t, result.Migrations, 3)
	require.Equal(t, 2, result.MigratedCount())
	require.Equal(t, reasonSessionActive, result.Migrations[0].Reason)
	require.True(t, result.Migrations[1].Success)
	require.True(t, result.Migrations[2].Success)
}

func TestExecute_FiresMigrationHook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t, activeProvider("p1"), activeProvider("p2"), activeProvider("p3"))
	f.seedSessions(t, "p1", 10, time.Hour)

	var migrated []string
	rb, err := New(&Config{
		Store:     f.store,
		Directory: f.directory,
		Analyzer:  mustAnalyzer(t, f),
		Hooks: types.Hooks{
			OnSessionMigrated: func(_ context.Context, sessionID, from, to string) error {
				migrated = append(migrated, sessionID)
				require.Equal(t, "p1", from)
				require.NotEqual(t, from, to)
				return nil
			},
		},
		Now: func() time.Time { return f.now },
	})
	require.NoError(t, err)

	result := rb.Execute(ctx, false, 3)
	require.Equal(t, 3, result.MigratedCount())
	require.Len(t, migrated, 3)
}

// runMetrics captures the rebalance run observation while delegating
// everything else to the nop collector.
type runMetrics struct {
	types.MetricsCollector

	calls     int
	performed bool
	dryRun    bool
	seconds   float64
}

func (m *runMetrics) RecordRebalanceRun(performed, dryRun bool, duration float64) {
	m.calls++
	m.performed = performed
	m.dryRun = dryRun
	m.seconds = duration
}

func TestExecute_RecordsRunMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t, activeProvider("p1"), activeProvider("p2"), activeProvider("p3"))
	f.seedSessions(t, "p1", 12, time.Hour)

	collector := &runMetrics{MetricsCollector: metrics.NewNop()}
	rb, err := New(&Config{
		Store:     f.store,
		Directory: f.directory,
		Analyzer:  mustAnalyzer(t, f),
		Metrics:   collector,
		Now:       func() time.Time { return f.now },
	})
	require.NoError(t, err)

	result := rb.Execute(ctx, true, 2)
	require.True(t, result.Performed)

	require.Equal(t, 1, collector.calls)
	require.True(t, collector.performed)
	require.True(t, collector.dryRun)
	require.InDelta(t, result.Duration.Seconds(), collector.seconds, 1e-9)
}

func mustAnalyzer(t *testing.T, f *fixture) *analyzer.Analyzer {
	t.Helper()

	an, err := analyzer.New(&analyzer.Config{
		Sessions:  storeCounts{store: f.store},
		Directory: f.directory,
		Now:       func() time.Time { return f.now },
	})
	require.NoError(t, err)

	return an
}
