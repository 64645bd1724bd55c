package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Alhambren/Dandolo-Prod-sub001/directory"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/metrics"
	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// staticCounts is a fixed-count SessionCounter for driving analysis
// scenarios without a live registry.
type staticCounts struct {
	counts map[string]int
	err    error
}

func (s staticCounts) CountsByProvider(context.Context) (map[string]int, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	total := 0
	for _, c := range s.counts {
		total += c
	}

	return s.counts, total, nil
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

func newTestAnalyzer(t *testing.T, counts map[string]int, providers ...types.Provider) *Analyzer {
	t.Helper()

	a, err := New(&Config{
		Sessions:  staticCounts{counts: counts},
		Directory: directory.NewStatic(providers),
	})
	require.NoError(t, err)

	return a
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(&Config{})
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	_, err = New(&Config{Sessions: staticCounts{}})
	require.ErrorIs(t, err, types.ErrProviderDirectoryRequired)
}

func TestAnalyze_SkewedFleet(t *testing.T) {
	t.Parallel()

	// One provider holding 50 of 65 sessions, three nearly idle peers.
	a := newTestAnalyzer(t,
		map[string]int{"p1": 50, "p2": 5, "p3": 5, "p4": 5},
		activeProvider("p1"), activeProvider("p2"), activeProvider("p3"), activeProvider("p4"),
	)

	report := a.Analyze(context.Background())
	require.NotNil(t, report)

	require.Equal(t, 65, report.TotalSessions)
	require.Equal(t, 4, report.ActiveProviders)
	require.InDelta(t, 16.25, report.AverageSessions, 1e-9)
	require.InDelta(t, 379.6875, report.Variance, 1e-9)

	require.Equal(t, []string{"p1"}, report.Overloaded)
	require.Len(t, report.Underutilized, 3)

	// Only the top two targets receive opportunities, each capped at the
	// per-pair maximum even though the source has 16 sessions to shed.
	require.Len(t, report.Opportunities, 2)
	for _, op := range report.Opportunities {
		require.Equal(t, "p1", op.FromProviderID)
		require.Equal(t, DefaultMaxPerPair, op.SessionsToMove)
	}
	require.NotEqual(t, report.Opportunities[0].ToProviderID, report.Opportunities[1].ToProviderID)

	require.True(t, report.RebalanceRecommended)
	require.Contains(t, report.Reason, "distribution skewed")
}

func TestAnalyze_BalancedFleet(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(t,
		map[string]int{"p1": 6, "p2": 5, "p3": 5, "p4": 5},
		activeProvider("p1"), activeProvider("p2"), activeProvider("p3"), activeProvider("p4"),
	)

	report := a.Analyze(context.Background())
	require.False(t, report.RebalanceRecommended)
	require.Empty(t, report.Opportunities)
	require.Contains(t, report.Reason, "within acceptable range")
}

func TestAnalyze_NoActiveProviders(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(t, nil)

	report := a.Analyze(context.Background())
	require.False(t, report.RebalanceRecommended)
	require.Zero(t, report.ActiveProviders)
	require.Equal(t, "no active providers", report.Reason)
}

func TestAnalyze_LowScoreTargetExcluded(t *testing.T) {
	t.Parallel()

	// p2 is idle but scores below the target floor, so it is not a valid
	// migration target and the skew goes unaddressed.
	weak := types.Provider{
		ID:              "p2",
		Name:            "p2",
		IsActive:        true,
		CapabilityScore: 5,
		AvgResponseTime: 10 * time.Second,
	}
	a := newTestAnalyzer(t,
		map[string]int{"p1": 30},
		activeProvider("p1"), weak,
	)

	report := a.Analyze(context.Background())
	require.Equal(t, []string{"p1"}, report.Overloaded)
	require.Empty(t, report.Underutilized)
	require.Empty(t, report.Opportunities)
	require.False(t, report.RebalanceRecommended)
	require.Equal(t, "no valid migration targets", report.Reason)
}

func TestAnalyze_HeadroomBoundsMoves(t *testing.T) {
	t.Parallel()

	// Target sits at 4 sessions against an average of 9, so only 5 moves
	// fit before it would overshoot the average.
	a := newTestAnalyzer(t,
		map[string]int{"p1": 23, "p2": 4, "p3": 0},
		activeProvider("p1"), activeProvider("p2"), activeProvider("p3"),
	)

	report := a.Analyze(context.Background())
	require.True(t, report.RebalanceRecommended)
	require.Len(t, report.Opportunities, 2)
	for _, op := range report.Opportunities {
		switch op.ToProviderID {
		case "p2":
			require.Equal(t, 5, op.SessionsToMove)
		case "p3":
			require.Equal(t, 7, op.SessionsToMove)
		default:
			t.Fatalf("unexpected target %q", op.ToProviderID)
		}
	}
}

// recordingMetrics captures the analyzer run observation while delegating
// everything else to the nop collector.
type recordingMetrics struct {
	types.MetricsCollector

	calls       int
	recommended bool
	seconds     float64
}

func (m *recordingMetrics) RecordAnalysis(recommended bool, duration float64) {
	m.calls++
	m.recommended = recommended
	m.seconds = duration
}

func TestAnalyze_RecordsRunMetrics(t *testing.T) {
	t.Parallel()

	collector := &recordingMetrics{MetricsCollector: metrics.NewNop()}

	// The clock advances 250ms between the run's start and end reads.
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	ticks := 0
	a, err := New(&Config{
		Sessions:  staticCounts{counts: map[string]int{"p1": 50, "p2": 5, "p3": 5, "p4": 5}},
		Directory: directory.NewStatic([]types.Provider{activeProvider("p1"), activeProvider("p2"), activeProvider("p3"), activeProvider("p4")}),
		Metrics:   collector,
		Now: func() time.Time {
			ticks++
			return base.Add(time.Duration(ticks-1) * 250 * time.Millisecond)
		},
	})
	require.NoError(t, err)

	report := a.Analyze(context.Background())
	require.True(t, report.RebalanceRecommended)

	require.Equal(t, 1, collector.calls)
	require.True(t, collector.recommended)
	require.InDelta(t, 0.25, collector.seconds, 1e-9)
}

func TestAnalyze_DegradedOnCountError(t *testing.T) {
	t.Parallel()

	a, err := New(&Config{
		Sessions:  staticCounts{err: errors.New("kv unavailable")},
		Directory: directory.NewStatic([]types.Provider{activeProvider("p1")}),
	})
	require.NoError(t, err)

	report := a.Analyze(context.Background())
	require.NotNil(t, report)
	require.False(t, report.RebalanceRecommended)
	require.Contains(t, report.Reason, "analysis degraded")
}
