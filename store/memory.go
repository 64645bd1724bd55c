package store

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// memEntry pairs a session record with its revision counter.
type memEntry struct {
	session  types.Session
	revision uint64
}

// Memory implements an in-process SessionStore with CAS semantics.
//
// It mirrors the revision behavior of the NATS KV store closely enough that
// registry and rebalancer logic can be tested against it without a server:
// revisions start at 1 and increment on every successful update.
type Memory struct {
	entries *xsync.Map[string, memEntry]
}

var _ types.SessionStore = (*Memory)(nil)

// NewMemory creates a new in-memory session store.
//
// Returns:
//   - *Memory: Empty store
//
// Example:
//
//	st := store.NewMemory()
//	router, err := dandolo.NewRouterWithStore(cfg, st, dir)
func NewMemory() *Memory {
	return &Memory{entries: xsync.NewMap[string, memEntry]()}
}

// Get fetches a session record and its current revision.
func (m *Memory) Get(_ context.Context, sessionID string) (*types.Session, uint64, error) {
	e, ok := m.entries.Load(sessionID)
	if !ok {
		return nil, 0, types.ErrSessionNotFound
	}

	s := e.session

	return &s, e.revision, nil
}

// Create inserts a new session record at revision 1.
func (m *Memory) Create(_ context.Context, session *types.Session) (uint64, error) {
	var created bool
	m.entries.Compute(session.ID, func(old memEntry, loaded bool) (memEntry, xsync.ComputeOp) {
		if loaded {
			return old, xsync.CancelOp
		}
		created = true

		return memEntry{session: *session, revision: 1}, xsync.UpdateOp
	})

	if !created {
		return 0, types.ErrSessionExists
	}

	return 1, nil
}

// Update overwrites an existing record iff its revision still matches.
func (m *Memory) Update(_ context.Context, session *types.Session, revision uint64) (uint64, error) {
	var (
		newRev uint64
		err    error
	)
	m.entries.Compute(session.ID, func(old memEntry, loaded bool) (memEntry, xsync.ComputeOp) {
		if !loaded {
			err = types.ErrSessionNotFound
			return old, xsync.CancelOp
		}
		if old.revision != revision {
			err = types.ErrRevisionMismatch
			return old, xsync.CancelOp
		}
		newRev = old.revision + 1

		return memEntry{session: *session, revision: newRev}, xsync.UpdateOp
	})

	if err != nil {
		return 0, err
	}

	return newRev, nil
}

// Delete removes a session record.
func (m *Memory) Delete(_ context.Context, sessionID string) error {
	var existed bool
	m.entries.Compute(sessionID, func(old memEntry, loaded bool) (memEntry, xsync.ComputeOp) {
		if !loaded {
			return old, xsync.CancelOp
		}
		existed = true

		return old, xsync.DeleteOp
	})

	if !existed {
		return types.ErrSessionNotFound
	}

	return nil
}

// List returns a snapshot of all live session records.
func (m *Memory) List(_ context.Context) ([]types.Session, error) {
	sessions := make([]types.Session, 0)
	m.entries.Range(func(_ string, e memEntry) bool {
		sessions = append(sessions, e.session)
		return true
	})

	return sessions, nil
}
