// Package directory provides built-in ProviderDirectory implementations.
//
// The provider directory is normally owned by the external provider
// management system; this package supplies an in-process implementation:
//
//   - Static: Mutable in-memory provider set
//
// Static is intended for tests, examples, and embedding callers that manage
// their own provider list. Custom directories can be implemented by
// satisfying the types.ProviderDirectory interface.
package directory
