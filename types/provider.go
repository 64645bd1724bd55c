package types

import "time"

// Provider is a compute node capable of serving inference requests.
//
// Provider records are owned by the external provider-management system and
// are strictly read-only from this library's perspective. The directory
// refreshes the quality metrics continuously; values observed here may lag
// the live fleet by one refresh interval.
type Provider struct {
	// ID uniquely identifies the provider.
	ID string `json:"id"`

	// Name is the human-readable provider name.
	Name string `json:"name"`

	// IsActive is the health gate. Inactive providers never receive new
	// sessions and are never valid migration targets.
	IsActive bool `json:"is_active"`

	// CapabilityScore is the provider's quality proxy in [0, 100].
	// Zero means "unset"; scoring substitutes a default in that case.
	CapabilityScore float64 `json:"capability_score"`

	// AvgResponseTime is the provider's recent average response time.
	AvgResponseTime time.Duration `json:"avg_response_time"`

	// VCUBalance is the provider's remaining compute budget (Venice
	// Compute Units). Nonnegative; more headroom scores higher.
	VCUBalance float64 `json:"vcu_balance"`
}
