package types

import "context"

// SessionStore is durable storage for session records with per-record
// compare-and-swap semantics.
//
// The store is the single source of truth for sticky routing. All
// coordination between concurrent callers happens through its revision
// checks: Create fails if a record already exists, Update fails if the
// record changed since it was read. This scopes mutual exclusion to a single
// session record rather than the whole registry.
//
// Implementations must be safe for concurrent use. List is a point-in-time
// snapshot and is allowed to be stale relative to concurrent writes.
type SessionStore interface {
	// Get fetches a session record and its current revision.
	//
	// Parameters:
	//   - ctx: Context for timeout/cancellation
	//   - sessionID: Session identifier
	//
	// Returns:
	//   - *Session: The record, or nil with ErrSessionNotFound
	//   - uint64: Revision to pass to Update for CAS
	//   - error: ErrSessionNotFound or store error
	Get(ctx context.Context, sessionID string) (*Session, uint64, error)

	// Create inserts a new session record.
	//
	// Parameters:
	//   - ctx: Context for timeout/cancellation
	//   - session: Record to insert (session.ID is the key)
	//
	// Returns:
	//   - uint64: Revision of the created record
	//   - error: ErrSessionExists if a record already exists, or store error
	Create(ctx context.Context, session *Session) (uint64, error)

	// Update overwrites an existing record iff its revision still matches.
	//
	// Parameters:
	//   - ctx: Context for timeout/cancellation
	//   - session: New record contents
	//   - revision: Revision observed by the preceding Get
	//
	// Returns:
	//   - uint64: New revision after the write
	//   - error: ErrRevisionMismatch if the record changed concurrently,
	//     ErrSessionNotFound if it was deleted, or store error
	Update(ctx context.Context, session *Session, revision uint64) (uint64, error)

	// Delete removes a session record.
	//
	// Parameters:
	//   - ctx: Context for timeout/cancellation
	//   - sessionID: Session identifier
	//
	// Returns:
	//   - error: ErrSessionNotFound if no record exists, or store error
	Delete(ctx context.Context, sessionID string) error

	// List returns a snapshot of all live session records.
	//
	// Parameters:
	//   - ctx: Context for timeout/cancellation
	//
	// Returns:
	//   - []Session: All records (may be empty, never nil on success)
	//   - error: Store error
	List(ctx context.Context) ([]Session, error)
}
