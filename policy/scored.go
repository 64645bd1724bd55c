package policy

import (
	"sort"
	"sync"
	"time"

	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// Scoring weight and factor constants for the composite score.
//
// The composite score combines four factors, each normalized to [0, 100]:
// capability (the provider's own quality metric), load (penalizes providers
// above the fleet average), response time (rewards low latency), and VCU
// balance (rewards remaining headroom).
const (
	// DefaultCapabilityScore substitutes for providers that have not
	// reported a capability score yet.
	DefaultCapabilityScore = 80.0

	// ResponseTimeCeiling caps the latency considered by the response time
	// factor. Anything slower scores zero on that factor.
	ResponseTimeCeiling = 10 * time.Second

	// DefaultTopCandidates is the pool size for the weighted draw.
	DefaultTopCandidates = 3

	capabilityWeight   = 0.4
	loadWeight         = 0.3
	responseTimeWeight = 0.2
	capacityWeight     = 0.1
)

// CompositeScore computes a provider's composite quality score in [0, 100].
//
// Factors:
//   - capability: provider's own metric, DefaultCapabilityScore if unset
//   - load: max(0, 100 - (sessions/max(avg,1)) * 50), penalizing providers
//     already above the fleet average
//   - response time: max(0, 100 - min(avgResponseTime, ceiling)ms / 100)
//   - capacity: min(vcuBalance * 10, 100)
//
// The same scoring is used for new-session selection and for qualifying
// rebalance targets, so the two mechanisms agree on what "good" means.
//
// Parameters:
//   - p: Provider to score
//   - sessions: Provider's current session count
//   - averageSessions: Fleet average session count
//
// Returns:
//   - float64: Weighted composite score in [0, 100]
func CompositeScore(p types.Provider, sessions int, averageSessions float64) float64 {
	capability := p.CapabilityScore
	if capability <= 0 {
		capability = DefaultCapabilityScore
	}

	loadFactor := 100.0 - (float64(sessions)/max(averageSessions, 1))*50.0
	if loadFactor < 0 {
		loadFactor = 0
	}

	rtMillis := float64(min(p.AvgResponseTime, ResponseTimeCeiling).Milliseconds())
	responseTimeFactor := 100.0 - rtMillis/100.0
	if responseTimeFactor < 0 {
		responseTimeFactor = 0
	}

	capacityFactor := min(p.VCUBalance*10.0, 100.0)

	return capabilityWeight*capability +
		loadWeight*loadFactor +
		responseTimeWeight*responseTimeFactor +
		capacityWeight*capacityFactor
}

// Scored implements composite-score weighted random selection.
//
// The policy scores every candidate, keeps the top few, and draws among them
// using each score as a weight. The randomized draw deliberately avoids a
// deterministic max-pick: when many sessions start simultaneously, a
// max-pick would herd all of them onto a single provider before the
// distribution counts catch up.
type Scored struct {
	topCandidates int

	mu  sync.Mutex
	rnd RandomSource
}

var _ types.SelectionPolicy = (*Scored)(nil)

// ScoredOption configures a Scored policy.
type ScoredOption func(*Scored)

// NewScored creates a new composite-score weighted selection policy.
//
// Parameters:
//   - opts: Optional configuration (WithRandomSource, WithTopCandidates)
//
// Returns:
//   - *Scored: Initialized policy
//
// Example:
//
//	pol := policy.NewScored(
//	    policy.WithRandomSource(policy.NewSeededSource(1)),
//	)
//	router, err := dandolo.NewRouter(conn, cfg, dir, dandolo.WithPolicy(pol))
func NewScored(opts ...ScoredOption) *Scored {
	s := &Scored{
		topCandidates: DefaultTopCandidates,
		rnd:           newDefaultSource(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithRandomSource sets the randomness source used for the weighted draw.
//
// Parameters:
//   - rnd: RandomSource implementation (seeded for deterministic tests)
//
// Returns:
//   - ScoredOption: Functional option for NewScored
func WithRandomSource(rnd RandomSource) ScoredOption {
	return func(s *Scored) {
		s.rnd = rnd
	}
}

// WithTopCandidates sets how many top-scoring providers enter the weighted draw.
//
// Parameters:
//   - n: Candidate pool size (values < 1 are ignored)
//
// Returns:
//   - ScoredOption: Functional option for NewScored
func WithTopCandidates(n int) ScoredOption {
	return func(s *Scored) {
		if n >= 1 {
			s.topCandidates = n
		}
	}
}

// scoredCandidate pairs a provider with its composite score for ranking.
type scoredCandidate struct {
	provider types.Provider
	score    float64
}

// Select picks a provider using composite scoring and a weighted draw.
//
// The algorithm:
//  1. A single candidate is returned immediately.
//  2. Score every candidate against the fleet average session count.
//  3. Keep the top candidates by score and draw among them with each score
//     as its weight.
//  4. If every retained score is zero, fall back to a uniform draw across
//     all candidates; scoring degeneracy alone never fails selection.
//
// Parameters:
//   - providers: Active candidate providers
//   - countsByID: Current session count per provider ID (stale-tolerant)
//
// Returns:
//   - types.Provider: The selected provider
//   - error: ErrNoCandidates if providers is empty
func (s *Scored) Select(providers []types.Provider, countsByID map[string]int) (types.Provider, error) {
	if len(providers) == 0 {
		return types.Provider{}, ErrNoCandidates
	}
	if len(providers) == 1 {
		return providers[0], nil
	}

	total := 0
	for _, n := range countsByID {
		total += n
	}
	average := float64(total) / float64(len(providers))

	candidates := make([]scoredCandidate, 0, len(providers))
	for _, p := range providers {
		candidates = append(candidates, scoredCandidate{
			provider: p,
			score:    CompositeScore(p, countsByID[p.ID], average),
		})
	}

	// Stable ordering before ranking so equal scores don't depend on input order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	top := candidates
	if len(top) > s.topCandidates {
		top = top[:s.topCandidates]
	}

	var totalWeight float64
	for _, c := range top {
		totalWeight += c.score
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if totalWeight <= 0 {
		return providers[s.rnd.IntN(len(providers))], nil
	}

	draw := s.rnd.Float64() * totalWeight
	for _, c := range top {
		draw -= c.score
		if draw < 0 {
			return c.provider, nil
		}
	}

	// Floating point rounding can leave draw at ~0 after the loop.
	return top[len(top)-1].provider, nil
}
