package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alhambren/Dandolo-Prod-sub001/internal/hooks"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/logging"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/metrics"
	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// Assignment outcomes reported to the metrics collector.
const (
	// OutcomeSticky means an existing pin was reused.
	OutcomeSticky = "sticky"
	// OutcomeFresh means the session received its first assignment.
	OutcomeFresh = "fresh"
	// OutcomeHealed means a stale pin was replaced after self-heal.
	OutcomeHealed = "healed"
)

// Removal reasons reported to the metrics collector.
const (
	removalExplicit      = "explicit"
	removalStaleProvider = "stale_provider"
)

// Config holds registry configuration.
//
// Required fields must be set before calling New. Optional fields will be
// set to sensible defaults if zero-valued.
type Config struct {
	// Required dependencies
	Store     types.SessionStore
	Directory types.ProviderDirectory
	Policy    types.SelectionPolicy

	// Optional configuration (with defaults)
	MaxAssignAttempts int // CAS retry bound for AssignOrGet (default: 3)

	// Optional dependencies
	Logger  types.Logger           // Logger (default: no-op)
	Metrics types.MetricsCollector // Metrics collector (default: no-op)
	Hooks   types.Hooks            // Lifecycle hooks (default: no-op)
	Now     func() time.Time       // Clock (default: time.Now)
}

// Validate checks configuration validity.
//
// Returns an error if any required field is missing.
func (c *Config) Validate() error {
	if c.Store == nil {
		return errors.New("the Store is required")
	}
	if c.Directory == nil {
		return errors.New("the Directory is required")
	}
	if c.Policy == nil {
		return errors.New("the Policy is required")
	}

	return nil
}

// SetDefaults applies default values for optional fields.
func (c *Config) SetDefaults() {
	if c.MaxAssignAttempts <= 0 {
		c.MaxAssignAttempts = 3
	}
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	hooks.Fill(&c.Hooks)
}

// Registry maps session IDs to their assigned providers.
type Registry struct {
	Config
}

// New creates a registry with validated configuration.
//
// Parameters:
//   - cfg: Registry configuration (required fields must be set)
//
// Returns:
//   - *Registry: New registry instance
//   - error: Validation error if required fields are missing
//
// Example:
//
//	reg, err := registry.New(&registry.Config{
//	    Store:     st,
//	    Directory: dir,
//	    Policy:    policy.NewScored(),
//	    Logger:    logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(cfg *Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.SetDefaults()

	return &Registry{Config: *cfg}, nil
}

// AssignOrGet resolves a session to a provider, assigning one if needed.
//
// An existing session whose provider is still active is reused and its
// LastUsed timestamp advanced. A session whose provider deactivated is
// deleted and re-assigned as if new (self-healing; never surfaced as an
// error). A session with no record receives a fresh assignment from the
// selection policy.
//
// Every write is a compare-and-swap; on contention the call re-reads and
// adopts whatever a concurrent winner produced, bounded by
// MaxAssignAttempts.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sessionID: Opaque caller-supplied session identifier
//   - intent: Optional hint recorded at assignment time ("" for none)
//
// Returns:
//   - string: The assigned provider's ID
//   - error: types.ErrNoProvidersAvailable if the directory reports zero
//     active providers, or a store/directory error
func (r *Registry) AssignOrGet(ctx context.Context, sessionID, intent string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < r.MaxAssignAttempts; attempt++ {
		providerID, retry, err := r.assignOnce(ctx, sessionID, intent)
		if err == nil {
			return providerID, nil
		}
		if !retry {
			return "", err
		}
		lastErr = err
		r.Logger.Debug("assignment contended, retrying",
			"session_id", sessionID, "attempt", attempt+1, "error", err)
	}

	return "", fmt.Errorf("session %s assignment did not converge after %d attempts: %w",
		sessionID, r.MaxAssignAttempts, lastErr)
}

// assignOnce performs one pass of the lookup/assign protocol.
//
// The boolean result indicates whether the error is a CAS contention that
// the caller should retry by re-reading.
func (r *Registry) assignOnce(ctx context.Context, sessionID, intent string) (string, bool, error) {
	outcome := OutcomeFresh

	session, revision, err := r.Store.Get(ctx, sessionID)
	switch {
	case err == nil:
		providerID, healed, herr := r.reuseOrHeal(ctx, session, revision)
		if herr != nil {
			return "", errors.Is(herr, types.ErrRevisionMismatch) || errors.Is(herr, types.ErrSessionNotFound), herr
		}
		if providerID != "" {
			return providerID, false, nil
		}
		// Stale record removed; continue to fresh assignment below.
		if healed {
			outcome = OutcomeHealed
		}
	case errors.Is(err, types.ErrSessionNotFound):
		// No record; fresh assignment below.
	default:
		return "", false, fmt.Errorf("failed to look up session %s: %w", sessionID, err)
	}

	providerID, err := r.assignFresh(ctx, sessionID, intent, outcome)
	if err != nil {
		return "", errors.Is(err, types.ErrSessionExists), err
	}

	return providerID, false, nil
}

// reuseOrHeal handles an existing session record.
//
// Returns the provider ID when the pin is still valid (after advancing
// LastUsed), or an empty ID after deleting a stale record.
func (r *Registry) reuseOrHeal(ctx context.Context, session *types.Session, revision uint64) (string, bool, error) {
	provider, err := r.Directory.GetProvider(ctx, session.ProviderID)
	if err != nil && !errors.Is(err, types.ErrProviderNotFound) {
		return "", false, fmt.Errorf("failed to check provider %s for session %s: %w",
			session.ProviderID, session.ID, err)
	}

	if err == nil && provider.IsActive {
		session.LastUsed = r.Now()
		if _, err := r.Store.Update(ctx, session, revision); err != nil {
			// A concurrent caller advanced this record a moment ago, so
			// the touch is redundant; keep the pin. Any other failure,
			// including a concurrent delete, goes back to the retry loop.
			if !errors.Is(err, types.ErrRevisionMismatch) {
				return "", false, err
			}
			r.Logger.Debug("session touch lost to concurrent update", "session_id", session.ID)
		}
		r.Metrics.RecordAssignment(session.ProviderID, OutcomeSticky)

		return session.ProviderID, false, nil
	}

	// The pin references a provider that disappeared or deactivated.
	// Delete the stale record and let the caller re-assign.
	r.Logger.Info("self-healing stale session",
		"session_id", session.ID, "provider_id", session.ProviderID)

	if err := r.Store.Delete(ctx, session.ID); err != nil && !errors.Is(err, types.ErrSessionNotFound) {
		return "", false, fmt.Errorf("failed to delete stale session %s: %w", session.ID, err)
	}
	r.Metrics.RecordSessionRemoved(removalStaleProvider)
	r.runHook(ctx, "session removed", func() error {
		return r.Hooks.OnSessionRemoved(ctx, session.ID)
	})

	return "", true, nil
}

// assignFresh selects a provider and creates the session record.
func (r *Registry) assignFresh(ctx context.Context, sessionID, intent, outcome string) (string, error) {
	providers, err := r.Directory.ListActiveProviders(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list active providers: %w", err)
	}
	if len(providers) == 0 {
		r.Metrics.RecordNoProviders()
		return "", types.ErrNoProvidersAvailable
	}

	counts, _, err := r.CountsByProvider(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count sessions for selection: %w", err)
	}

	chosen, err := r.Policy.Select(providers, counts)
	if err != nil {
		return "", fmt.Errorf("selection policy failed: %w", err)
	}

	now := r.Now()
	session := &types.Session{
		ID:         sessionID,
		ProviderID: chosen.ID,
		Intent:     intent,
		AssignedAt: now,
		LastUsed:   now,
	}

	if _, err := r.Store.Create(ctx, session); err != nil {
		// ErrSessionExists means a concurrent caller won the create race;
		// the retry loop re-reads and adopts the winner's assignment.
		return "", err
	}

	r.Logger.Info("session assigned",
		"session_id", sessionID, "provider_id", chosen.ID, "intent", intent, "outcome", outcome)
	r.Metrics.RecordAssignment(chosen.ID, outcome)
	r.runHook(ctx, "session assigned", func() error {
		return r.Hooks.OnSessionAssigned(ctx, sessionID, chosen.ID)
	})

	return chosen.ID, nil
}

// GetCurrent returns the session's assigned provider without side effects.
//
// Unlike AssignOrGet it never mutates LastUsed and never triggers
// assignment, which makes it safe for dashboards and inspection.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sessionID: Session identifier
//
// Returns:
//   - string: Provider ID ("" when absent)
//   - bool: Whether a session with an active provider exists
//   - error: Store or directory error
func (r *Registry) GetCurrent(ctx context.Context, sessionID string) (string, bool, error) {
	session, _, err := r.Store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("failed to look up session %s: %w", sessionID, err)
	}

	provider, err := r.Directory.GetProvider(ctx, session.ProviderID)
	if err != nil {
		if errors.Is(err, types.ErrProviderNotFound) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("failed to check provider %s: %w", session.ProviderID, err)
	}
	if !provider.IsActive {
		return "", false, nil
	}

	return session.ProviderID, true, nil
}

// Remove deletes a session record if present.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sessionID: Session identifier
//
// Returns:
//   - bool: Whether a record existed (idempotent: false on repeat calls)
//   - error: Store error
func (r *Registry) Remove(ctx context.Context, sessionID string) (bool, error) {
	err := r.Store.Delete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("failed to remove session %s: %w", sessionID, err)
	}

	r.Metrics.RecordSessionRemoved(removalExplicit)
	r.runHook(ctx, "session removed", func() error {
		return r.Hooks.OnSessionRemoved(ctx, sessionID)
	})

	return true, nil
}

// ListByProvider returns all sessions pinned to a provider.
//
// The result is a point-in-time snapshot and may be stale relative to
// concurrent assignment; analysis callers tolerate stale counts.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - providerID: Provider to filter by
//
// Returns:
//   - []types.Session: Sessions pinned to the provider
//   - error: Store error
func (r *Registry) ListByProvider(ctx context.Context, providerID string) ([]types.Session, error) {
	sessions, err := r.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	filtered := make([]types.Session, 0)
	for _, s := range sessions {
		if s.ProviderID == providerID {
			filtered = append(filtered, s)
		}
	}

	return filtered, nil
}

// CountsByProvider returns the session count per provider ID and the total.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - map[string]int: Session count keyed by provider ID
//   - int: Total session count
//   - error: Store error
func (r *Registry) CountsByProvider(ctx context.Context) (map[string]int, int, error) {
	sessions, err := r.Store.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	counts := make(map[string]int)
	for _, s := range sessions {
		counts[s.ProviderID]++
	}

	return counts, len(sessions), nil
}

// runHook invokes a lifecycle hook and logs (never propagates) its error.
func (r *Registry) runHook(_ context.Context, event string, fn func() error) {
	if err := fn(); err != nil {
		r.Logger.Warn("lifecycle hook failed", "event", event, "error", err)
	}
}
