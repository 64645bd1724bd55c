package types

import "time"

// MigrationOutcome records the result of one attempted session migration.
type MigrationOutcome struct {
	// SessionID is the migrated (or skipped) session.
	SessionID string `json:"session_id"`

	// FromProviderID is the provider the session was pinned to.
	FromProviderID string `json:"from_provider_id"`

	// ToProviderID is the intended destination provider.
	ToProviderID string `json:"to_provider_id"`

	// Success is true when the session record was updated (or, in a dry
	// run, when the migration would have been performed).
	Success bool `json:"success"`

	// Reason explains a failure or skip. Empty on success.
	Reason string `json:"reason,omitempty"`
}

// DistributionSnapshot is a compact view of per-provider session counts used
// to compare fleet balance before and after a rebalancing run.
type DistributionSnapshot struct {
	// Counts maps provider ID to session count.
	Counts map[string]int `json:"counts"`

	// Variance is the population variance of Counts.
	Variance float64 `json:"variance"`
}

// RebalanceResult is the outcome of one rebalancing run.
//
// Results are ephemeral and returned to the periodic trigger; individual
// migration failures are recorded here rather than surfaced as errors, since
// the run typically executes unattended.
type RebalanceResult struct {
	// RunID uniquely identifies this rebalancing run for log correlation.
	RunID string `json:"run_id"`

	// DryRun is true when no session records were mutated.
	DryRun bool `json:"dry_run"`

	// Performed is false when the analyzer did not recommend rebalancing;
	// Reason carries the analyzer's explanation in that case.
	Performed bool `json:"performed"`

	// Reason explains why the run did (or did not) proceed.
	Reason string `json:"reason"`

	// Migrations lists every attempted migration in execution order.
	Migrations []MigrationOutcome `json:"migrations"`

	// Before is the distribution snapshot from the analyzer.
	Before DistributionSnapshot `json:"before"`

	// After is the distribution estimated from the executed (or planned)
	// moves. Estimated rather than re-queried to bound the run's cost.
	After DistributionSnapshot `json:"after"`

	// ImprovementPct is the percentage reduction in variance between
	// Before and After.
	ImprovementPct float64 `json:"improvement_pct"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// MigratedCount returns the number of successful migrations in the run.
//
// Returns:
//   - int: Count of outcomes with Success=true
func (r *RebalanceResult) MigratedCount() int {
	n := 0
	for _, m := range r.Migrations {
		if m.Success {
			n++
		}
	}

	return n
}
