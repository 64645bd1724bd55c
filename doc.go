// Package dandolo provides sticky session-to-provider routing for multi-turn
// inference traffic, with distribution analysis and bounded rebalancing.
//
// Dandolo keeps each conversation pinned to one provider for its lifetime so
// that provider-side context (KV caches, conversation state) stays warm.
// Assignments live in a durable NATS JetStream KV bucket; all coordination
// between concurrent request handlers happens through compare-and-swap on the
// session record, never through an in-process lock.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	import "github.com/Alhambren/Dandolo-Prod-sub001"
//
//	cfg := dandolo.DefaultConfig()
//	router, err := dandolo.NewRouter(ctx, natsConn, &cfg, providerDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer router.Close()
//
//	providerID, err := router.AssignOrGet(ctx, sessionID, "chat")
//
// # Key Features
//
//   - Sticky Assignment: a session's provider changes only via explicit
//     rebalancing, never on ordinary lookups
//   - Self-Healing: sessions pointing at deactivated providers are silently
//     re-assigned on next use
//   - Weighted Selection: new sessions draw from the top-scoring providers
//     rather than always taking the best, avoiding thundering herds
//   - Idle-Only Rebalancing: only sessions idle past a threshold migrate,
//     bounded per run, with both endpoints re-verified before each move
//
// # Rebalancing
//
// An external scheduler (typically every ~15 minutes) drives rebalancing:
//
//	report := router.AnalyzeDistribution(ctx)        // read-only, dashboard-safe
//	result := router.ExecuteRebalancing(ctx, false, 10)
//
// Analysis classifies providers against the fleet average (overloaded above
// 1.4x, migration targets below 0.5x with an adequate quality score) and
// recommends rebalancing only when count variance exceeds half the average.
//
// # Advanced Usage
//
// Custom policy and hooks with options:
//
//	import (
//	    dandolo "github.com/Alhambren/Dandolo-Prod-sub001"
//	    "github.com/Alhambren/Dandolo-Prod-sub001/policy"
//	)
//
//	p := policy.NewScored(policy.WithTopCandidates(5))
//
//	hooks := &dandolo.Hooks{
//	    OnSessionMigrated: func(ctx context.Context, sessionID, from, to string) error {
//	        // Invalidate gateway-side caches
//	        return nil
//	    },
//	}
//
//	router, err := dandolo.NewRouter(ctx, natsConn, &cfg, providerDir,
//	    dandolo.WithPolicy(p),
//	    dandolo.WithHooks(hooks),
//	)
//
// See the examples/ directory for complete working examples.
package dandolo
