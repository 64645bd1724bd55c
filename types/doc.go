// Package types provides core type definitions and interfaces for the Dandolo library.
//
// This package contains shared types that are used across multiple packages in the
// Dandolo library. By keeping these types in a separate package, we avoid import
// cycles between the main dandolo package and its internal implementations.
//
// Key types:
//   - Session: A conversation's sticky routing pin
//   - Provider: A compute node and its live quality metrics
//   - DistributionReport: Fleet load analysis and migration opportunities
//   - RebalanceResult: Outcome of one rebalancing run
//   - SessionStore: Durable session record storage with CAS semantics
//   - ProviderDirectory: Read-only provider listing collaborator
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
