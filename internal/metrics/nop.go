// Package metrics provides MetricsCollector implementations for the Dandolo library.
package metrics

import "github.com/Alhambren/Dandolo-Prod-sub001/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RegistryMetrics implementation

// RecordAssignment discards the assignment outcome metric.
func (n *NopMetrics) RecordAssignment(_ /* providerID */, _ /* outcome */ string) {
	// No-op
}

// RecordNoProviders discards the empty-fleet failure metric.
func (n *NopMetrics) RecordNoProviders() {
	// No-op
}

// RecordSessionRemoved discards the session removal metric.
func (n *NopMetrics) RecordSessionRemoved(_ /* reason */ string) {
	// No-op
}

// AnalyzerMetrics implementation

// RecordAnalysis discards the analysis run metric.
func (n *NopMetrics) RecordAnalysis(_ /* recommended */ bool, _ /* duration */ float64) {
	// No-op
}

// RecordDistributionVariance discards the variance gauge.
func (n *NopMetrics) RecordDistributionVariance(_ /* variance */ float64) {
	// No-op
}

// RebalanceMetrics implementation

// RecordRebalanceRun discards the rebalance run metric.
func (n *NopMetrics) RecordRebalanceRun(_ /* performed */, _ /* dryRun */ bool, _ /* duration */ float64) {
	// No-op
}

// RecordMigration discards the migration outcome metric.
func (n *NopMetrics) RecordMigration(_ /* success */ bool, _ /* reason */ string) {
	// No-op
}

// StoreMetrics implementation

// RecordStoreOperation discards the store latency metric.
func (n *NopMetrics) RecordStoreOperation(_ /* operation */ string, _ /* duration */ float64) {
	// No-op
}
