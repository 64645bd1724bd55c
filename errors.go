package dandolo

import "github.com/Alhambren/Dandolo-Prod-sub001/types"

// Sentinel errors returned by the Router, re-exported from the types
// subpackage for errors.Is checks at the call site.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrNATSConnectionRequired is returned when the NATS connection is nil.
	ErrNATSConnectionRequired = types.ErrNATSConnectionRequired

	// ErrProviderDirectoryRequired is returned when the provider directory is nil.
	ErrProviderDirectoryRequired = types.ErrProviderDirectoryRequired

	// ErrSessionStoreRequired is returned when the session store is nil.
	ErrSessionStoreRequired = types.ErrSessionStoreRequired

	// ErrRouterClosed is returned when operations are invoked after Close.
	ErrRouterClosed = types.ErrRouterClosed

	// ErrNoProvidersAvailable is returned by AssignOrGet when the directory
	// reports zero active providers. The only hard failure surfaced to
	// request callers; retry policy belongs to the caller.
	ErrNoProvidersAvailable = types.ErrNoProvidersAvailable

	// ErrProviderNotFound is returned when a provider ID is not in the
	// directory.
	ErrProviderNotFound = types.ErrProviderNotFound

	// ErrSessionNotFound is returned by the session store when no record
	// exists for a session ID.
	ErrSessionNotFound = types.ErrSessionNotFound
)
