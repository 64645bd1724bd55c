package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/zeebo/xxh3"

	"github.com/Alhambren/Dandolo-Prod-sub001/internal/logging"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/metrics"
	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// NATSKV implements a durable SessionStore backed by a JetStream KV bucket.
//
// Session IDs are caller-supplied opaque strings and may contain characters
// that are invalid in KV keys, so each record is stored under the hex form
// of the ID's 128-bit xxh3 hash. The full ID lives inside the JSON value,
// which is how List recovers it.
//
// CAS semantics map directly onto JetStream KV revisions:
//   - Create uses kv.Create, which fails if the key exists
//   - Update uses kv.Update with the expected revision
//   - Delete uses kv.Purge so ended sessions leave no tombstone history
type NATSKV struct {
	kv      jetstream.KeyValue
	logger  types.Logger
	metrics types.StoreMetrics
}

var _ types.SessionStore = (*NATSKV)(nil)

// NewNATSKV creates a session store over an existing JetStream KV bucket.
//
// Parameters:
//   - kv: KV bucket holding session records
//   - logger: Logger for diagnostics (nil uses a no-op logger)
//   - collector: Metrics for store operation latency (nil uses a no-op collector)
//
// Returns:
//   - *NATSKV: Initialized store
//
// Example:
//
//	js, _ := jetstream.New(nc)
//	kv, _ := js.KeyValue(ctx, "dandolo-sessions")
//	st := store.NewNATSKV(kv, logger, nil)
func NewNATSKV(kv jetstream.KeyValue, logger types.Logger, collector types.StoreMetrics) *NATSKV {
	if logger == nil {
		logger = logging.NewNop()
	}
	if collector == nil {
		collector = metrics.NewNop()
	}

	return &NATSKV{kv: kv, logger: logger, metrics: collector}
}

// Get fetches a session record and its current revision.
func (n *NATSKV) Get(ctx context.Context, sessionID string) (*types.Session, uint64, error) {
	defer n.observe("get", time.Now())

	entry, err := n.kv.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, types.ErrSessionNotFound
		}

		return nil, 0, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}

	session, err := decodeSession(entry.Value())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}

	return session, entry.Revision(), nil
}

// Create inserts a new session record.
func (n *NATSKV) Create(ctx context.Context, session *types.Session) (uint64, error) {
	defer n.observe("create", time.Now())

	data, err := json.Marshal(session)
	if err != nil {
		return 0, fmt.Errorf("failed to encode session %s: %w", session.ID, err)
	}

	rev, err := n.kv.Create(ctx, sessionKey(session.ID), data)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return 0, types.ErrSessionExists
		}

		return 0, fmt.Errorf("failed to create session %s: %w", session.ID, err)
	}

	return rev, nil
}

// Update overwrites an existing record iff its revision still matches.
func (n *NATSKV) Update(ctx context.Context, session *types.Session, revision uint64) (uint64, error) {
	defer n.observe("update", time.Now())

	data, err := json.Marshal(session)
	if err != nil {
		return 0, fmt.Errorf("failed to encode session %s: %w", session.ID, err)
	}

	rev, err := n.kv.Update(ctx, sessionKey(session.ID), data, revision)
	if err != nil {
		if isRevisionConflict(err) {
			return 0, types.ErrRevisionMismatch
		}
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return 0, types.ErrSessionNotFound
		}

		return 0, fmt.Errorf("failed to update session %s: %w", session.ID, err)
	}

	return rev, nil
}

// Delete removes a session record and its history.
func (n *NATSKV) Delete(ctx context.Context, sessionID string) error {
	defer n.observe("delete", time.Now())

	key := sessionKey(sessionID)

	// Purge publishes a marker whether or not the key exists, so check
	// existence first to keep the not-found contract.
	if _, err := n.kv.Get(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return types.ErrSessionNotFound
		}

		return fmt.Errorf("failed to check session %s before delete: %w", sessionID, err)
	}

	if err := n.kv.Purge(ctx, key); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	return nil
}

// List returns a snapshot of all live session records.
//
// The snapshot is assembled key by key and is not transactional; records
// created or deleted mid-listing may or may not appear. Distribution
// analysis explicitly tolerates this staleness.
func (n *NATSKV) List(ctx context.Context) ([]types.Session, error) {
	defer n.observe("list", time.Now())

	keys, err := n.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []types.Session{}, nil
		}

		return nil, fmt.Errorf("failed to list session keys: %w", err)
	}

	sessions := make([]types.Session, 0, len(keys))
	for _, key := range keys {
		entry, err := n.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				// Deleted between Keys and Get; skip.
				continue
			}

			return nil, fmt.Errorf("failed to read session key %s: %w", key, err)
		}

		session, err := decodeSession(entry.Value())
		if err != nil {
			n.logger.Warn("skipping undecodable session record", "key", key, "error", err)
			continue
		}

		sessions = append(sessions, *session)
	}

	return sessions, nil
}

// observe records one store operation's latency.
func (n *NATSKV) observe(op string, start time.Time) {
	n.metrics.RecordStoreOperation(op, time.Since(start).Seconds())
}

// sessionKey derives the KV key for a session ID.
func sessionKey(sessionID string) string {
	sum := xxh3.HashString128(sessionID)
	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
}

// decodeSession unmarshals a stored session record.
func decodeSession(data []byte) (*types.Session, error) {
	var s types.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// isRevisionConflict checks whether a KV update failed because the record's
// revision moved underneath the caller.
//
// JetStream reports the condition as a "wrong last sequence" API error; some
// client versions surface it as ErrKeyExists. Both mean the same thing here.
func isRevisionConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}

	return strings.Contains(err.Error(), "wrong last sequence")
}
