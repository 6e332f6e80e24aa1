package domain

// OpsMetrics is the operational counter snapshot served by
// GET /v1/metrics/ops.
type OpsMetrics struct {
	SnapshotFallbacks float64 `json:"snapshotFallbacks"`
	CacheHitRate      float64 `json:"cacheHitRate"`
	WriteFailures     float64 `json:"writeFailures"`
	ApprovalDenials   float64 `json:"approvalDenials"`
	Period            string  `json:"period"`
}
