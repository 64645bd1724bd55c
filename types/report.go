package types

import "time"

// ProviderLoad is one provider's standing in a distribution analysis.
type ProviderLoad struct {
	// ProviderID identifies the provider.
	ProviderID string `json:"provider_id"`

	// Name is the provider's human-readable name.
	Name string `json:"name"`

	// SessionCount is the number of sessions pinned to the provider at
	// analysis time.
	SessionCount int `json:"session_count"`

	// Score is the provider's composite quality score at analysis time.
	Score float64 `json:"score"`
}

// MigrationOpportunity proposes moving sessions between two providers.
//
// Opportunities are produced by the analyzer in priority order and consumed
// by the rebalancer until the global migration budget is exhausted.
type MigrationOpportunity struct {
	// FromProviderID is the overloaded source provider.
	FromProviderID string `json:"from_provider_id"`

	// ToProviderID is the underutilized target provider.
	ToProviderID string `json:"to_provider_id"`

	// SessionsToMove is the bounded number of sessions to migrate for this
	// pair. Never enough to overshoot the fleet average in either
	// direction.
	SessionsToMove int `json:"sessions_to_move"`
}

// DistributionReport is a point-in-time analysis of session distribution
// across the provider fleet.
//
// Reports are ephemeral: computed on demand, never persisted. The counts are
// snapshots and may be stale by the time the report is read; the rebalancer
// re-verifies provider health before acting on any opportunity.
type DistributionReport struct {
	// GeneratedAt is when the analysis ran.
	GeneratedAt time.Time `json:"generated_at"`

	// TotalSessions is the number of live sessions across all providers.
	TotalSessions int `json:"total_sessions"`

	// ActiveProviders is the number of active providers at analysis time.
	ActiveProviders int `json:"active_providers"`

	// AverageSessions is TotalSessions / ActiveProviders.
	AverageSessions float64 `json:"average_sessions"`

	// Variance is the population variance of per-provider session counts,
	// the imbalance signal.
	Variance float64 `json:"variance"`

	// Providers lists every active provider's load, sorted by session
	// count descending.
	Providers []ProviderLoad `json:"providers"`

	// Overloaded lists provider IDs whose session count exceeds the
	// overload threshold.
	Overloaded []string `json:"overloaded"`

	// Underutilized lists provider IDs below the underutilization
	// threshold that also clear the minimum score floor. A cheap but
	// low-quality provider is not a valid migration target.
	Underutilized []string `json:"underutilized"`

	// Opportunities is the ranked list of proposed migrations.
	Opportunities []MigrationOpportunity `json:"opportunities"`

	// RebalanceRecommended is true when variance exceeds the threshold and
	// at least one valid opportunity exists.
	RebalanceRecommended bool `json:"rebalance_recommended"`

	// Reason explains the recommendation, or the specific reason
	// rebalancing is not recommended (no active providers, variance
	// acceptable, no valid target, analysis degraded).
	Reason string `json:"reason"`
}
