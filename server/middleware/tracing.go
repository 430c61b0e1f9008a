package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/skillsenselab/authgate/observability"
)

// Tracing opens a span per request, named by method and route, and records
// the response status. Probe endpoints are not traced.
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProbeEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		ctx, span := observability.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.Int("http.status_code", status),
		)
		if id := c.GetString(RequestIDKey); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
