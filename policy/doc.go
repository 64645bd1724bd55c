// Package policy provides built-in provider selection policies.
//
// A selection policy picks a provider for a brand-new (or orphaned) session,
// balancing quality against current load. The package includes two built-in
// policies:
//
//   - Scored: Composite-score weighted random selection (recommended)
//   - Random: Uniform random selection
//
// # Policy Selection Guide
//
// Scored:
//   - Weighs capability, current load, latency, and remaining VCU balance
//   - Draws randomly among the top candidates by score weight, so near-ties
//     are spread across providers instead of herding onto one
//   - Configuration: score weights, top candidate count, default capability
//
// Random:
//   - Uniform draw across all active providers
//   - Ignores quality metrics entirely
//   - Useful as a baseline or when metrics are unavailable
//
// Custom policies can be implemented by satisfying the SelectionPolicy
// interface. Policies are pure and side-effect-free: the same inputs and the
// same RandomSource state always produce the same choice, which makes
// selection reproducible in tests via a seeded source.
package policy
