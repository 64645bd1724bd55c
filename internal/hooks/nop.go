// Package hooks provides default no-op lifecycle hook implementations.
package hooks

import (
	"context"

	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// NewNop creates Hooks with no-op callbacks for every event.
//
// This is the default used when no custom hooks are provided, eliminating
// nil checks at every call site.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	return types.Hooks{
		OnSessionAssigned: func(_ context.Context, _, _ string) error { return nil },
		OnSessionMigrated: func(_ context.Context, _, _, _ string) error { return nil },
		OnSessionRemoved:  func(_ context.Context, _ string) error { return nil },
	}
}

// Fill replaces any nil callback in h with a no-op so callers can invoke
// every hook unconditionally.
//
// Parameters:
//   - h: Hooks to normalize (modified in place)
func Fill(h *types.Hooks) {
	nop := NewNop()
	if h.OnSessionAssigned == nil {
		h.OnSessionAssigned = nop.OnSessionAssigned
	}
	if h.OnSessionMigrated == nil {
		h.OnSessionMigrated = nop.OnSessionMigrated
	}
	if h.OnSessionRemoved == nil {
		h.OnSessionRemoved = nop.OnSessionRemoved
	}
}
