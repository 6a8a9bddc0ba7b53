package models

import "time"

const (
	// HealthStatusHealthy is the only status the liveness endpoints report
	HealthStatusHealthy = "healthy"

	// ServiceName identifies this backend in health payloads
	ServiceName = "DGTT Auto-Ecole Backend"

	// ServiceVersion is the released API version
	ServiceVersion = "1.0.0"
)

// HealthResponse represents the response structure for health check endpoints
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`
	Timestamp time.Time `json:"timestamp" example:"2025-11-10T14:30:00.123456Z"`
	Service   string    `json:"service" example:"DGTT Auto-Ecole Backend"`
	Version   string    `json:"version" example:"1.0.0"`
}

// NewHealthResponse builds the liveness payload for the given instant
func NewHealthResponse(now time.Time) HealthResponse {
	return HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: now.UTC(),
		Service:   ServiceName,
		Version:   ServiceVersion,
	}
}

// Readiness statuses
const (
	ReadinessReady    = "ready"
	ReadinessNotReady = "not_ready"

	DependencyOK   = "ok"
	DependencyDown = "down"
)

// DependencyStatus is the state of one dependency checked by /ready
type DependencyStatus struct {
	Status  string `json:"status" example:"ok"`
	Details string `json:"details" example:"sqlite reachable"`
}

// ReadinessResponse represents the response of the readiness endpoint
type ReadinessResponse struct {
	Status   string                      `json:"status" example:"ready"`
	Services map[string]DependencyStatus `json:"services"`
	Uptime   string                      `json:"uptime" example:"3h12m5s"`
}

// CounterResponse carries the counter value of the current session
type CounterResponse struct {
	Count int64 `json:"count" example:"3"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal server error"`
	Message string `json:"message" example:"Counter store unavailable"`
}
