package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// AutosaveMetrics is returned by GET /v1/metrics/autosave.
type AutosaveMetrics struct {
	OpenSessions     int64   `json:"openSessions"`
	FlushesTotal     int64   `json:"flushesTotal"`
	FlushesSkipped   int64   `json:"flushesSkipped"`
	FlushesCoalesced int64   `json:"flushesCoalesced"`
	FlushesFailed    int64   `json:"flushesFailed"`
	SkipRatio        float64 `json:"skipRatio"`
	CacheHitRate     float64 `json:"cacheHitRate"`
}
