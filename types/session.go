package types

import "time"

// Session represents one ongoing conversation's routing pin.
//
// A session keeps a conversation bound to a single provider so that the
// provider-side inference context survives across turns. At most one live
// Session record exists per ID; the SessionStore enforces this invariant.
type Session struct {
	// ID is the opaque, caller-supplied session identifier.
	ID string `json:"id"`

	// ProviderID references the assigned provider in the ProviderDirectory.
	// The reference was valid at assignment time but may go stale if the
	// provider deactivates later; the registry self-heals stale references
	// on the next lookup.
	ProviderID string `json:"provider_id"`

	// Intent is an optional hint recorded at assignment time
	// (e.g. "chat", "code"). Informational only; it never affects routing.
	Intent string `json:"intent,omitempty"`

	// AssignedAt is when the session was first bound to ProviderID.
	// Reset on migration.
	AssignedAt time.Time `json:"assigned_at"`

	// LastUsed is the time of the most recent traffic on this session.
	// Updated on every successful AssignOrGet; reset on migration.
	LastUsed time.Time `json:"last_used"`
}

// IdleFor returns how long the session has been idle relative to now.
//
// Parameters:
//   - now: Reference time for the idle calculation
//
// Returns:
//   - time.Duration: Elapsed time since LastUsed (negative if LastUsed is in the future)
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastUsed)
}
