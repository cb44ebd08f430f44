package models

// AlertThreshold is the final score above which an account counts as an
// active alert.
const AlertThreshold = 0.7

// GlobalMetrics is recomputed on demand from a ledger snapshot plus the
// ingestion collaborator's velocity estimate.
type GlobalMetrics struct {
	TotalTransactions int64   `json:"totalTransactions"`
	ActiveAlerts      int     `json:"activeAlerts"`
	AvgRiskScore      float64 `json:"avgRiskScore"`
	// NetworkVelocity is transactions per minute, supplied by the feed
	// layer rather than computed here.
	NetworkVelocity float64 `json:"networkVelocity"`
}
