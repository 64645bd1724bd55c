package rebalance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alhambren/Dandolo-Prod-sub001/internal/hooks"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/logging"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/metrics"
	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

const (
	// DefaultMinIdleTime is how long a session must sit unused before it is
	// eligible for migration. Active conversations are never moved
	// mid-exchange.
	DefaultMinIdleTime = 5 * time.Minute

	// DefaultMaxSessions caps the migrations attempted in a single run.
	DefaultMaxSessions = 10
)

// Migration skip/failure reasons recorded in MigrationOutcome.
const (
	reasonSourceInactive = "source provider no longer active"
	reasonTargetInactive = "target provider no longer active"
	reasonSessionRemoved = "session removed before migration"
	reasonSessionActive  = "session became active during migration"
)

// Distribution supplies the pre-run analysis. Implemented by the analyzer.
type Distribution interface {
	Analyze(ctx context.Context) *types.DistributionReport
}

// Config configures a Rebalancer.
type Config struct {
	// Store holds the session records to migrate. Required.
	Store types.SessionStore

	// Directory re-verifies provider health before each migration. Required.
	Directory types.ProviderDirectory

	// Analyzer recommends (or declines) each run. Required.
	Analyzer Distribution

	// MinIdleTime overrides DefaultMinIdleTime when > 0.
	MinIdleTime time.Duration

	// MaxSessions overrides DefaultMaxSessions when > 0. Callers may still
	// lower the budget per run via Execute.
	MaxSessions int

	// Logger receives rebalancing logs. Defaults to a no-op logger.
	Logger types.Logger

	// Metrics receives rebalancing metrics. Defaults to a no-op collector.
	Metrics types.MetricsCollector

	// Hooks receives migration lifecycle callbacks.
	Hooks types.Hooks

	// Now supplies the current time, injectable for tests. Defaults to
	// time.Now.
	Now func() time.Time
}

// Validate checks that required dependencies are set.
func (c *Config) Validate() error {
	if c.Store == nil {
		return types.ErrSessionStoreRequired
	}
	if c.Directory == nil {
		return types.ErrProviderDirectoryRequired
	}
	if c.Analyzer == nil {
		return fmt.Errorf("%w: analyzer is required", types.ErrInvalidConfig)
	}

	return nil
}

// SetDefaults fills in zero-valued optional fields.
func (c *Config) SetDefaults() {
	if c.MinIdleTime <= 0 {
		c.MinIdleTime = DefaultMinIdleTime
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = DefaultMaxSessions
	}
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNop()
	}
	hooks.Fill(&c.Hooks)
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Rebalancer executes bounded idle-session migrations.
type Rebalancer struct {
	cfg Config
}

// New creates a Rebalancer from the given configuration.
func New(cfg *Config) (*Rebalancer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()

	return &Rebalancer{cfg: *cfg}, nil
}

// Execute runs one rebalancing pass.
//
// The run analyzes the current distribution, and if rebalancing is
// recommended migrates up to maxSessions idle sessions along the analyzer's
// opportunities. With dryRun set, every intended migration is recorded in the
// result but no session record is written.
//
// Execute never returns an error: it runs unattended from a periodic
// trigger, so failures are absorbed into the result. Per-session failures
// (provider went inactive, session turned active) are recorded as failed
// outcomes and do not abort the remaining migrations.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - dryRun: When true, plan migrations without mutating any session
//   - maxSessions: Global migration budget for this run; <= 0 uses the
//     configured default
//
// Returns:
//   - *types.RebalanceResult: Per-session outcomes and before/after
//     distribution snapshots
func (r *Rebalancer) Execute(ctx context.Context, dryRun bool, maxSessions int) *types.RebalanceResult {
	start := r.cfg.Now()
	result := &types.RebalanceResult{
		RunID:     uuid.NewString(),
		DryRun:    dryRun,
		StartedAt: start,
	}
	defer func() {
		result.Duration = r.cfg.Now().Sub(start)
		r.cfg.Metrics.RecordRebalanceRun(result.Performed, dryRun, result.Duration.Seconds())
	}()

	if maxSessions <= 0 {
		maxSessions = r.cfg.MaxSessions
	}

	report := r.cfg.Analyzer.Analyze(ctx)
	result.Before = snapshotFromReport(report)
	result.After = result.Before
	result.Reason = report.Reason

	if !report.RebalanceRecommended {
		r.cfg.Logger.Debug("rebalancing not recommended",
			"run_id", result.RunID, "reason", report.Reason)
		return result
	}

	idleByProvider, err := r.idleSessions(ctx)
	if err != nil {
		r.cfg.Logger.Error("failed to list sessions for rebalancing",
			"run_id", result.RunID, "error", err)
		result.Reason = fmt.Sprintf("rebalancing aborted: %v", err)
		return result
	}

	result.Performed = true
	budget := maxSessions

	for _, op := range report.Opportunities {
		if budget <= 0 {
			break
		}
		candidates := idleByProvider[op.FromProviderID]
		take := op.SessionsToMove
		if take > len(candidates) {
			take = len(candidates)
		}
		if take > budget {
			take = budget
		}

		for _, session := range candidates[:take] {
			outcome := r.migrate(ctx, session, op.FromProviderID, op.ToProviderID, dryRun)
			result.Migrations = append(result.Migrations, outcome)
			r.cfg.Metrics.RecordMigration(outcome.Success, outcome.Reason)
			budget--
		}
		idleByProvider[op.FromProviderID] = candidates[take:]
	}

	result.After = estimateAfter(result.Before, result.Migrations)
	if result.Before.Variance > 0 {
		result.ImprovementPct = (result.Before.Variance - result.After.Variance) / result.Before.Variance * 100
	}

	r.cfg.Logger.Info("rebalancing run complete",
		"run_id", result.RunID,
		"dry_run", dryRun,
		"attempted", len(result.Migrations),
		"migrated", result.MigratedCount(),
		"improvement_pct", result.ImprovementPct,
	)

	return result
}

// idleSessions snapshots every session idle past the threshold, grouped by
// its current provider.
func (r *Rebalancer) idleSessions(ctx context.Context) (map[string][]types.Session, error) {
	sessions, err := r.cfg.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	now := r.cfg.Now()
	byProvider := make(map[string][]types.Session)
	for _, s := range sessions {
		if s.IdleFor(now) >= r.cfg.MinIdleTime {
			byProvider[s.ProviderID] = append(byProvider[s.ProviderID], s)
		}
	}

	return byProvider, nil
}

// migrate attempts to move one session, re-verifying both endpoints first.
func (r *Rebalancer) migrate(ctx context.Context, session types.Session, fromID, toID string, dryRun bool) types.MigrationOutcome {
	outcome := types.MigrationOutcome{
		SessionID:      session.ID,
		FromProviderID: fromID,
		ToProviderID:   toID,
	}

	// Providers may have changed state between analysis and now.
	if reason, ok := r.verifyActive(ctx, fromID, reasonSourceInactive); !ok {
		outcome.Reason = reason
		return outcome
	}
	if reason, ok := r.verifyActive(ctx, toID, reasonTargetInactive); !ok {
		outcome.Reason = reason
		return outcome
	}

	if dryRun {
		outcome.Success = true
		return outcome
	}

	current, revision, err := r.cfg.Store.Get(ctx, session.ID)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			outcome.Reason = reasonSessionRemoved
		} else {
			outcome.Reason = err.Error()
		}
		return outcome
	}
	if current.ProviderID != fromID || current.IdleFor(r.cfg.Now()) < r.cfg.MinIdleTime {
		outcome.Reason = reasonSessionActive
		return outcome
	}

	now := r.cfg.Now()
	current.ProviderID = toID
	current.AssignedAt = now
	current.LastUsed = now

	if _, err := r.cfg.Store.Update(ctx, current, revision); err != nil {
		// A concurrent AssignOrGet touched the record; the session is in
		// use and keeps its current provider.
		if errors.Is(err, types.ErrRevisionMismatch) {
			outcome.Reason = reasonSessionActive
		} else {
			outcome.Reason = err.Error()
		}
		r.cfg.Logger.Warn("session migration failed",
			"session_id", session.ID, "from", fromID, "to", toID, "reason", outcome.Reason)
		return outcome
	}

	outcome.Success = true
	if err := r.cfg.Hooks.OnSessionMigrated(ctx, session.ID, fromID, toID); err != nil {
		r.cfg.Logger.Warn("lifecycle hook failed", "event", "session migrated", "error", err)
	}

	return outcome
}

// verifyActive checks that a provider still exists and is active.
func (r *Rebalancer) verifyActive(ctx context.Context, providerID, inactiveReason string) (string, bool) {
	provider, err := r.cfg.Directory.GetProvider(ctx, providerID)
	if err != nil {
		return fmt.Sprintf("%s: %v", inactiveReason, err), false
	}
	if !provider.IsActive {
		return inactiveReason, false
	}

	return "", true
}

// snapshotFromReport converts the analyzer's per-provider loads into a
// distribution snapshot.
func snapshotFromReport(report *types.DistributionReport) types.DistributionSnapshot {
	counts := make(map[string]int, len(report.Providers))
	for _, l := range report.Providers {
		counts[l.ProviderID] = l.SessionCount
	}

	return types.DistributionSnapshot{Counts: counts, Variance: report.Variance}
}

// estimateAfter projects the post-run distribution from the executed (or, in
// a dry run, planned) moves instead of re-querying the store.
func estimateAfter(before types.DistributionSnapshot, migrations []types.MigrationOutcome) types.DistributionSnapshot {
	counts := make(map[string]int, len(before.Counts))
	for id, c := range before.Counts {
		counts[id] = c
	}
	for _, m := range migrations {
		if !m.Success {
			continue
		}
		counts[m.FromProviderID]--
		counts[m.ToProviderID]++
	}

	return types.DistributionSnapshot{Counts: counts, Variance: countsVariance(counts)}
}

func countsVariance(counts map[string]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	mean := float64(total) / float64(len(counts))

	var sum float64
	for _, c := range counts {
		d := float64(c) - mean
		sum += d * d
	}

	return sum / float64(len(counts))
}
