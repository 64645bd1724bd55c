package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods may be called concurrently and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	RegistryMetrics
	AnalyzerMetrics
	RebalanceMetrics
	StoreMetrics
}

// RegistryMetrics defines metrics for session registry operations.
type RegistryMetrics interface {
	// RecordAssignment records the outcome of an AssignOrGet call.
	//
	// Parameters:
	//   - providerID: Provider the session resolved to
	//   - outcome: "sticky" (existing pin reused), "fresh" (new assignment),
	//     or "healed" (stale pin replaced after self-heal)
	RecordAssignment(providerID string, outcome string)

	// RecordNoProviders records an AssignOrGet failure caused by an empty
	// active-provider list.
	RecordNoProviders()

	// RecordSessionRemoved records an explicit or self-heal session removal.
	//
	// Parameters:
	//   - reason: "explicit" or "stale_provider"
	RecordSessionRemoved(reason string)
}

// AnalyzerMetrics defines metrics for distribution analysis.
type AnalyzerMetrics interface {
	// RecordAnalysis records one analyzer run.
	//
	// Parameters:
	//   - recommended: Whether rebalancing was recommended
	//   - duration: Analysis time in seconds
	RecordAnalysis(recommended bool, duration float64)

	// RecordDistributionVariance sets the most recent population variance
	// of per-provider session counts (gauge metric).
	//
	// Parameters:
	//   - variance: Population variance from the latest analysis
	RecordDistributionVariance(variance float64)
}

// RebalanceMetrics defines metrics for rebalancing runs.
type RebalanceMetrics interface {
	// RecordRebalanceRun records a completed rebalancing run.
	//
	// Parameters:
	//   - performed: Whether any migrations were attempted
	//   - dryRun: Whether the run was a dry run
	//   - duration: Run time in seconds
	RecordRebalanceRun(performed, dryRun bool, duration float64)

	// RecordMigration records one attempted session migration.
	//
	// Parameters:
	//   - success: Whether the session record was updated
	//   - reason: Failure/skip reason ("" on success)
	RecordMigration(success bool, reason string)
}

// StoreMetrics defines metrics for session store operations.
type StoreMetrics interface {
	// RecordStoreOperation records session store operation latency.
	//
	// Parameters:
	//   - operation: Operation type ("get", "create", "update", "delete", "list")
	//   - duration: Time taken in seconds
	RecordStoreOperation(operation string, duration float64)
}
