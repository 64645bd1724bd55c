package types

// SelectionPolicy picks a provider for a session that has none.
//
// Implementations must be pure and side-effect-free: they read the candidate
// list and the current distribution, and return a choice. All durable state
// changes belong to the registry.
//
// Implementations must be safe for concurrent use; many request handlers
// select providers simultaneously.
type SelectionPolicy interface {
	// Select picks one provider from the candidates.
	//
	// Parameters:
	//   - providers: Active candidate providers (never empty; the registry
	//     rejects the empty case with ErrNoProvidersAvailable first)
	//   - countsByID: Current session count per provider ID. Approximate
	//     and allowed to be stale; missing IDs count as zero.
	//
	// Returns:
	//   - Provider: The selected provider
	//   - error: Selection error (e.g. empty candidate list)
	Select(providers []Provider, countsByID map[string]int) (Provider, error)
}
