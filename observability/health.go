package observability

// HealthStatus is the health state of a component or of the whole service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of one dependency, such as the identity
// provider's key set endpoint.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth aggregates component health into an overall service status.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth creates a ServiceHealth that starts out up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent records a component result and worsens the overall status
// when needed. Down is sticky; degraded never overrides down.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)
	sh.Status = worse(sh.Status, ch.Status)
}

// Aggregate folds component statuses into one overall status.
func Aggregate(components []Health) HealthStatus {
	status := HealthStatusUp
	for _, ch := range components {
		status = worse(status, ch.Status)
	}
	return status
}

func worse(current, next HealthStatus) HealthStatus {
	switch {
	case current == HealthStatusDown || next == HealthStatusDown:
		return HealthStatusDown
	case current == HealthStatusDegraded || next == HealthStatusDegraded:
		return HealthStatusDegraded
	default:
		return current
	}
}
