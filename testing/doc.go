// Package testing provides test utilities for the Dandolo library.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for integration testing. It follows Go's convention
// of providing testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - CreateSessionKV: Convenience wrapper for session KV bucket creation
//   - NewTestLogger: Logger that writes through testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    dandolotest "github.com/Alhambren/Dandolo-Prod-sub001/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := dandolotest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
