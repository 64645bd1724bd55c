// Package store provides built-in SessionStore implementations.
//
// The session store is the single source of truth for sticky routing. The
// package includes:
//
//   - NATSKV: Durable store backed by a NATS JetStream KeyValue bucket
//     (recommended for production)
//   - Memory: In-process store with the same CAS semantics (for tests and
//     single-node embedding)
//
// Both implementations honor the per-record compare-and-swap contract of
// types.SessionStore: Create fails when a record exists, Update fails when
// the record's revision moved. Custom stores can be implemented by
// satisfying the types.SessionStore interface.
package store
