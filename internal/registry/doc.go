// Package registry implements the durable session registry.
//
// The registry is the single source of truth for sticky routing: it maps
// session IDs to their assigned providers, keeps sessions pinned while their
// provider stays healthy, self-heals sessions whose provider deactivated,
// and delegates fresh assignment to the configured selection policy.
//
// All mutations on a session record execute as compare-and-swap operations
// against the session store, so concurrent callers for the same session ID
// serialize and the loser adopts the winner's result. There is no in-process
// shared routing state.
package registry
