package directory

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// Static implements a provider directory backed by an in-memory map.
//
// Providers can be upserted and toggled at any time, which lets tests
// simulate fleet changes (a provider deactivating mid-conversation, new
// capacity coming online) without an external directory service.
type Static struct {
	providers *xsync.Map[string, types.Provider]
}

var _ types.ProviderDirectory = (*Static)(nil)

// NewStatic creates a new in-memory provider directory.
//
// Parameters:
//   - providers: Initial provider set (may be empty)
//
// Returns:
//   - *Static: Initialized directory
//
// Example:
//
//	dir := directory.NewStatic([]types.Provider{
//	    {ID: "venice-a", Name: "Venice A", IsActive: true, CapabilityScore: 85, VCUBalance: 12},
//	    {ID: "venice-b", Name: "Venice B", IsActive: true, CapabilityScore: 70, VCUBalance: 30},
//	})
//	router, err := dandolo.NewRouter(conn, cfg, dir)
func NewStatic(providers []types.Provider) *Static {
	s := &Static{providers: xsync.NewMap[string, types.Provider]()}
	for _, p := range providers {
		s.providers.Store(p.ID, p)
	}

	return s
}

// ListActiveProviders returns all providers whose health gate is open.
//
// Returns:
//   - []types.Provider: Active providers (empty slice if none)
//   - error: Always nil (never fails)
func (s *Static) ListActiveProviders(_ context.Context) ([]types.Provider, error) {
	active := make([]types.Provider, 0)
	s.providers.Range(func(_ string, p types.Provider) bool {
		if p.IsActive {
			active = append(active, p)
		}

		return true
	})

	return active, nil
}

// GetProvider returns a single provider by ID, active or not.
//
// Parameters:
//   - id: Provider ID
//
// Returns:
//   - *types.Provider: Copy of the provider record
//   - error: types.ErrProviderNotFound if no such provider
func (s *Static) GetProvider(_ context.Context, id string) (*types.Provider, error) {
	p, ok := s.providers.Load(id)
	if !ok {
		return nil, types.ErrProviderNotFound
	}

	return &p, nil
}

// Upsert adds or replaces a provider record.
//
// Parameters:
//   - p: Provider record to store
func (s *Static) Upsert(p types.Provider) {
	s.providers.Store(p.ID, p)
}

// SetActive toggles a provider's health gate.
//
// This simulates the external health checker deactivating or restoring a
// provider, which is how tests exercise stale-session self-healing.
//
// Parameters:
//   - id: Provider ID
//   - active: New health gate value
//
// Returns:
//   - bool: Whether the provider existed
func (s *Static) SetActive(id string, active bool) bool {
	p, ok := s.providers.Load(id)
	if !ok {
		return false
	}

	p.IsActive = active
	s.providers.Store(id, p)

	return true
}

// Remove deletes a provider record.
//
// Parameters:
//   - id: Provider ID
func (s *Static) Remove(id string) {
	s.providers.Delete(id)
}
