package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSession_IdleFor(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ID: "s1", ProviderID: "p1", LastUsed: now.Add(-7 * time.Minute)}

	require.Equal(t, 7*time.Minute, s.IdleFor(now))
}

func TestSession_IdleFor_FutureLastUsed(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ID: "s1", LastUsed: now.Add(time.Minute)}

	require.Negative(t, s.IdleFor(now))
}

func TestRebalanceResult_MigratedCount(t *testing.T) {
	t.Parallel()

	r := &RebalanceResult{
		Migrations: []MigrationOutcome{
			{SessionID: "a", Success: true},
			{SessionID: "b", Success: false, Reason: "target provider inactive"},
			{SessionID: "c", Success: true},
		},
	}

	require.Equal(t, 2, r.MigratedCount())
}

func TestRebalanceResult_MigratedCount_Empty(t *testing.T) {
	t.Parallel()

	r := &RebalanceResult{}
	require.Equal(t, 0, r.MigratedCount())
}
