package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/authgate/observability"
)

// HealthChecker reports the health of the service's dependencies.
type HealthChecker func(ctx context.Context) []observability.Health

// Health reports service health including component statuses. A down
// component yields 503 so load balancers stop routing here.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var components []observability.Health
		if checker != nil {
			components = checker(c.Request.Context())
		}
		status := observability.Aggregate(components)

		httpStatus := http.StatusOK
		if status == observability.HealthStatusDown {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}
