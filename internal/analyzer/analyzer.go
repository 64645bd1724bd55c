package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Alhambren/Dandolo-Prod-sub001/internal/logging"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/metrics"
	"github.com/Alhambren/Dandolo-Prod-sub001/policy"
	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// Default analysis parameters. Tuned for small fleets (tens of providers)
// where a single hot provider dominates tail latency.
const (
	// DefaultOverloadFactor marks a provider overloaded when its session
	// count exceeds average * factor.
	DefaultOverloadFactor = 1.4

	// DefaultUnderutilizedFactor marks a provider underutilized when its
	// session count falls below average * factor.
	DefaultUnderutilizedFactor = 0.5

	// DefaultMinTargetScore is the composite score floor a provider must
	// clear to be a valid migration target.
	DefaultMinTargetScore = 70.0

	// DefaultVarianceFactor sets the imbalance trigger: rebalancing is only
	// recommended when variance exceeds average * factor.
	DefaultVarianceFactor = 0.5

	// DefaultMaxPerPair caps the sessions proposed for a single
	// source/target pair in one report.
	DefaultMaxPerPair = 10

	// DefaultTopOverloaded bounds how many overloaded providers receive
	// opportunities per report.
	DefaultTopOverloaded = 3

	// DefaultTopTargets bounds how many targets each overloaded provider
	// spreads into.
	DefaultTopTargets = 2
)

// SessionCounter supplies per-provider session counts. Implemented by the
// session registry.
type SessionCounter interface {
	// CountsByProvider returns live session counts keyed by provider ID and
	// the total session count.
	CountsByProvider(ctx context.Context) (map[string]int, int, error)
}

// Config configures a distribution Analyzer.
type Config struct {
	// Sessions supplies session counts. Required.
	Sessions SessionCounter

	// Directory supplies the active provider fleet. Required.
	Directory types.ProviderDirectory

	// OverloadFactor overrides DefaultOverloadFactor when > 0.
	OverloadFactor float64

	// UnderutilizedFactor overrides DefaultUnderutilizedFactor when > 0.
	UnderutilizedFactor float64

	// MinTargetScore overrides DefaultMinTargetScore when > 0.
	MinTargetScore float64

	// VarianceFactor overrides DefaultVarianceFactor when > 0.
	VarianceFactor float64

	// MaxPerPair overrides DefaultMaxPerPair when > 0.
	MaxPerPair int

	// Logger receives analysis logs. Defaults to a no-op logger.
	Logger types.Logger

	// Metrics receives analysis metrics. Defaults to a no-op collector.
	Metrics types.MetricsCollector

	// Now supplies the current time, injectable for tests. Defaults to
	// time.Now.
	Now func() time.Time
}

// Validate checks that required dependencies are set.
func (c *Config) Validate() error {
	if c.Sessions == nil {
		return fmt.Errorf("%w: session counter is required", types.ErrInvalidConfig)
	}
	if c.Directory == nil {
		return types.ErrProviderDirectoryRequired
	}

	return nil
}

// SetDefaults fills in zero-valued optional fields.
func (c *Config) SetDefaults() {
	if c.OverloadFactor <= 0 {
		c.OverloadFactor = DefaultOverloadFactor
	}
	if c.UnderutilizedFactor <= 0 {
		c.UnderutilizedFactor = DefaultUnderutilizedFactor
	}
	if c.MinTargetScore <= 0 {
		c.MinTargetScore = DefaultMinTargetScore
	}
	if c.VarianceFactor <= 0 {
		c.VarianceFactor = DefaultVarianceFactor
	}
	if c.MaxPerPair <= 0 {
		c.MaxPerPair = DefaultMaxPerPair
	}
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Analyzer computes distribution reports over the provider fleet.
type Analyzer struct {
	cfg Config
}

// New creates an Analyzer from the given configuration.
func New(cfg *Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()

	return &Analyzer{cfg: *cfg}, nil
}

// Analyze produces a point-in-time distribution report.
//
// Analyze never returns an error: dependency failures and panics are
// converted into a non-recommending report whose Reason names the failure.
// Callers can always act on the report without a separate error path.
func (a *Analyzer) Analyze(ctx context.Context) (report *types.DistributionReport) {
	start := a.cfg.Now()

	defer func() {
		if r := recover(); r != nil {
			a.cfg.Logger.Error("distribution analysis panicked", "panic", r)
			report = a.degraded(start, fmt.Sprintf("analysis degraded: %v", r))
		}
		a.cfg.Metrics.RecordAnalysis(report.RebalanceRecommended, a.cfg.Now().Sub(start).Seconds())
	}()

	providers, err := a.cfg.Directory.ListActiveProviders(ctx)
	if err != nil {
		a.cfg.Logger.Error("failed to list providers for analysis", "error", err)
		return a.degraded(start, fmt.Sprintf("analysis degraded: %v", err))
	}
	if len(providers) == 0 {
		return &types.DistributionReport{
			GeneratedAt: start,
			Reason:      "no active providers",
		}
	}

	counts, total, err := a.cfg.Sessions.CountsByProvider(ctx)
	if err != nil {
		a.cfg.Logger.Error("failed to count sessions for analysis", "error", err)
		return a.degraded(start, fmt.Sprintf("analysis degraded: %v", err))
	}

	average := float64(total) / float64(len(providers))

	// Sessions pinned to providers no longer in the active fleet are left
	// out of the statistics; they self-heal on their next assignment.
	loads := make([]types.ProviderLoad, 0, len(providers))
	for _, p := range providers {
		count := counts[p.ID]
		loads = append(loads, types.ProviderLoad{
			ProviderID:   p.ID,
			Name:         p.Name,
			SessionCount: count,
			Score:        policy.CompositeScore(p, count, average),
		})
	}
	sort.SliceStable(loads, func(i, j int) bool {
		return loads[i].SessionCount > loads[j].SessionCount
	})

	variance := populationVariance(loads, average)
	a.cfg.Metrics.RecordDistributionVariance(variance)

	overloadThreshold := average * a.cfg.OverloadFactor
	underThreshold := average * a.cfg.UnderutilizedFactor

	var overloaded, underutilized []types.ProviderLoad
	for _, l := range loads {
		switch {
		case float64(l.SessionCount) > overloadThreshold:
			overloaded = append(overloaded, l)
		case float64(l.SessionCount) < underThreshold && l.Score >= a.cfg.MinTargetScore:
			underutilized = append(underutilized, l)
		}
	}
	// Targets are ranked by quality, not by spare room: migrated sessions
	// should land on the best available provider.
	sort.SliceStable(underutilized, func(i, j int) bool {
		return underutilized[i].Score > underutilized[j].Score
	})

	opportunities := a.pairOpportunities(overloaded, underutilized, average)

	report = &types.DistributionReport{
		GeneratedAt:     start,
		TotalSessions:   total,
		ActiveProviders: len(providers),
		AverageSessions: average,
		Variance:        variance,
		Providers:       loads,
		Overloaded:      providerIDs(overloaded),
		Underutilized:   providerIDs(underutilized),
		Opportunities:   opportunities,
	}

	varianceThreshold := average * a.cfg.VarianceFactor
	switch {
	case variance <= varianceThreshold:
		report.Reason = fmt.Sprintf("variance %.2f within acceptable range (threshold %.2f)", variance, varianceThreshold)
	case len(overloaded) == 0:
		report.Reason = "no overloaded providers"
	case len(opportunities) == 0:
		report.Reason = "no valid migration targets"
	default:
		report.RebalanceRecommended = true
		report.Reason = fmt.Sprintf("distribution skewed: variance %.2f exceeds threshold %.2f", variance, varianceThreshold)
	}

	a.cfg.Logger.Debug("distribution analysis complete",
		"total_sessions", total,
		"active_providers", len(providers),
		"variance", variance,
		"opportunities", len(opportunities),
		"recommended", report.RebalanceRecommended,
	)

	return report
}

// pairOpportunities crosses the hottest overloaded providers with the best
// underutilized targets, bounding each pair so neither side overshoots the
// fleet average.
func (a *Analyzer) pairOpportunities(overloaded, underutilized []types.ProviderLoad, average float64) []types.MigrationOpportunity {
	sources := overloaded
	if len(sources) > DefaultTopOverloaded {
		sources = sources[:DefaultTopOverloaded]
	}
	targets := underutilized
	if len(targets) > DefaultTopTargets {
		targets = targets[:DefaultTopTargets]
	}

	var opportunities []types.MigrationOpportunity
	for _, src := range sources {
		for _, dst := range targets {
			moves := int(math.Floor((float64(src.SessionCount) - average) / 2))
			if headroom := int(math.Floor(average - float64(dst.SessionCount))); headroom < moves {
				moves = headroom
			}
			if moves > a.cfg.MaxPerPair {
				moves = a.cfg.MaxPerPair
			}
			if moves <= 0 {
				continue
			}
			opportunities = append(opportunities, types.MigrationOpportunity{
				FromProviderID: src.ProviderID,
				ToProviderID:   dst.ProviderID,
				SessionsToMove: moves,
			})
		}
	}

	return opportunities
}

func (a *Analyzer) degraded(at time.Time, reason string) *types.DistributionReport {
	return &types.DistributionReport{
		GeneratedAt: at,
		Reason:      reason,
	}
}

func populationVariance(loads []types.ProviderLoad, mean float64) float64 {
	if len(loads) == 0 {
		return 0
	}
	var sum float64
	for _, l := range loads {
		d := float64(l.SessionCount) - mean
		sum += d * d
	}

	return sum / float64(len(loads))
}

func providerIDs(loads []types.ProviderLoad) []string {
	if len(loads) == 0 {
		return nil
	}
	ids := make([]string, len(loads))
	for i, l := range loads {
		ids[i] = l.ProviderID
	}

	return ids
}
