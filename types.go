package dandolo

import "github.com/Alhambren/Dandolo-Prod-sub001/types"

// Re-export types from the types subpackage.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal
// packages to depend on `types` without depending on the root `dandolo`
// package, while still providing a convenient `dandolo.Session`,
// `dandolo.Provider`, etc. for users.
type (
	Session              = types.Session
	Provider             = types.Provider
	ProviderLoad         = types.ProviderLoad
	MigrationOpportunity = types.MigrationOpportunity
	DistributionReport   = types.DistributionReport
	MigrationOutcome     = types.MigrationOutcome
	DistributionSnapshot = types.DistributionSnapshot
	RebalanceResult      = types.RebalanceResult
)

// Re-export interfaces from the types subpackage for convenience.
type (
	ProviderDirectory = types.ProviderDirectory
	SessionStore      = types.SessionStore
	SelectionPolicy   = types.SelectionPolicy
	MetricsCollector  = types.MetricsCollector
	Logger            = types.Logger
	Hooks             = types.Hooks
)
