package types

import "errors"

// Sentinel errors for the Dandolo library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Router errors - Public API errors returned by the Router component.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNATSConnectionRequired is returned when NATS connection is nil.
	ErrNATSConnectionRequired = errors.New("NATS connection is required")

	// ErrProviderDirectoryRequired is returned when the provider directory is nil.
	ErrProviderDirectoryRequired = errors.New("provider directory is required")

	// ErrSessionStoreRequired is returned when the session store is nil.
	ErrSessionStoreRequired = errors.New("session store is required")

	// ErrRouterClosed is returned when operations are invoked after Close.
	ErrRouterClosed = errors.New("router closed")
)

// Routing errors - Assignment and rebalancing error conditions.
var (
	// ErrNoProvidersAvailable is returned when the directory reports zero
	// active providers. This is the only error that propagates to request
	// callers as a hard failure; retry policy belongs to the caller.
	ErrNoProvidersAvailable = errors.New("no active providers available")

	// ErrProviderNotFound is returned when a provider ID does not exist in
	// the directory.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderInactive indicates a provider exists but its health gate
	// is closed. Local to a single migration attempt during rebalancing.
	ErrProviderInactive = errors.New("provider inactive")
)

// Store errors - SessionStore error conditions.
var (
	// ErrSessionNotFound is returned when no record exists for a session ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned by Create when a record already exists.
	// The caller lost a create race and should adopt the winner's record.
	ErrSessionExists = errors.New("session already exists")

	// ErrRevisionMismatch is returned by Update when the record changed
	// since it was read. The caller should re-read and decide again.
	ErrRevisionMismatch = errors.New("session revision mismatch")
)
