package models

import "time"

// SystemMetrics is a point-in-time summary of the shell process.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ViewResolutions          uint64    `json:"view_resolutions"`
	FallbackResolutions      uint64    `json:"fallback_resolutions"`
	LoginsSucceeded          uint64    `json:"logins_succeeded"`
	LoginsFailed             uint64    `json:"logins_failed"`
	FetchRetries             uint64    `json:"fetch_retries"`
	ActiveShells             int       `json:"active_shells"`
	UpstreamReachable        bool      `json:"upstream_reachable"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
