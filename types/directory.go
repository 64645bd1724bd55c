package types

import "context"

// ProviderDirectory is the read-only view of the provider fleet.
//
// The directory is owned by the external provider-management system, which
// performs health checks and refreshes quality metrics. This library only
// reads from it and never mutates a Provider record.
//
// Implementations must be safe for concurrent use. Returned metrics are
// understood to be approximate and continuously stale; callers must not
// assume a provider reported active here is still active one call later.
type ProviderDirectory interface {
	// ListActiveProviders returns all providers whose health gate is open.
	//
	// Parameters:
	//   - ctx: Context for timeout/cancellation
	//
	// Returns:
	//   - []Provider: Active providers (may be empty, never nil on success)
	//   - error: Lookup error
	ListActiveProviders(ctx context.Context) ([]Provider, error)

	// GetProvider returns a single provider by ID, active or not.
	//
	// Parameters:
	//   - ctx: Context for timeout/cancellation
	//   - id: Provider ID
	//
	// Returns:
	//   - *Provider: The provider, or nil with ErrProviderNotFound
	//   - error: ErrProviderNotFound if no such provider, or lookup error
	GetProvider(ctx context.Context, id string) (*Provider, error)
}
