package policy

import (
	"sync"

	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// Random implements uniform random provider selection.
//
// Every active provider is equally likely regardless of quality metrics or
// current load. This was the original selection behavior before composite
// scoring existed and remains useful as a baseline, or when the directory's
// metrics cannot be trusted yet.
type Random struct {
	mu  sync.Mutex
	rnd RandomSource
}

var _ types.SelectionPolicy = (*Random)(nil)

// NewRandom creates a new uniform random selection policy.
//
// Parameters:
//   - rnd: RandomSource to draw from (nil uses the process-global generator)
//
// Returns:
//   - *Random: Initialized policy
//
// Example:
//
//	pol := policy.NewRandom(nil)
//	router, err := dandolo.NewRouter(conn, cfg, dir, dandolo.WithPolicy(pol))
func NewRandom(rnd RandomSource) *Random {
	if rnd == nil {
		rnd = newDefaultSource()
	}

	return &Random{rnd: rnd}
}

// Select picks a provider uniformly at random.
//
// Parameters:
//   - providers: Active candidate providers
//   - countsByID: Ignored by this policy
//
// Returns:
//   - types.Provider: The selected provider
//   - error: ErrNoCandidates if providers is empty
func (r *Random) Select(providers []types.Provider, _ map[string]int) (types.Provider, error) {
	if len(providers) == 0 {
		return types.Provider{}, ErrNoCandidates
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return providers[r.rnd.IntN(len(providers))], nil
}
