package types

import "context"

// Hooks defines callbacks for session lifecycle events.
//
// All hooks are optional. They are invoked synchronously after the
// corresponding store write succeeds, so implementations should complete
// quickly and must not call back into the Router (deadlock-free but
// unbounded recursion otherwise). Hook errors are logged and never fail the
// triggering operation.
//
// A typical use is gateway-side cache invalidation: when a session migrates
// or is removed, the gateway drops any cached provider binding.
type Hooks struct {
	// OnSessionAssigned is called when a session receives a fresh
	// assignment (first use, or reassignment after self-heal).
	OnSessionAssigned func(ctx context.Context, sessionID, providerID string) error

	// OnSessionMigrated is called when the rebalancer moves a session.
	OnSessionMigrated func(ctx context.Context, sessionID, fromProviderID, toProviderID string) error

	// OnSessionRemoved is called when a session record is deleted, either
	// explicitly or by stale-provider self-healing.
	OnSessionRemoved func(ctx context.Context, sessionID string) error
}
