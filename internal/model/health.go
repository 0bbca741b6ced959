package model

import "time"

// HealthStatus is the status of one dependency.
type HealthStatus string

const (
	StatusHealthy       HealthStatus = "healthy"
	StatusUnhealthy     HealthStatus = "unhealthy"
	StatusConfigured    HealthStatus = "configured"
	StatusNotConfigured HealthStatus = "not_configured"
)

// Usable reports whether the dependency can serve requests.
func (s HealthStatus) Usable() bool {
	return s == StatusHealthy || s == StatusConfigured
}

// CompositeStatus is the overall service status.
type CompositeStatus string

const (
	CompositeHealthy   CompositeStatus = "healthy"
	CompositeDegraded  CompositeStatus = "degraded"
	CompositeUnhealthy CompositeStatus = "unhealthy"
)

// Service names reported by the health check.
const (
	ServiceCache       = "cache"
	ServiceDatabase    = "database"
	ServiceVectorIndex = "vector-index"
	ServiceModel       = "model"
	ServiceMessaging   = "messaging"
)

type HealthReport struct {
	Status    CompositeStatus         `json:"status"`
	Services  map[string]HealthStatus `json:"services"`
	CheckedAt time.Time               `json:"checked_at"`
}
