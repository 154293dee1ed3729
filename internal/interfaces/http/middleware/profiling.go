package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProfileLabels tags the goroutine serving a request with the route
// template, the method and the tenant, so cpu and heap profiles can be
// sliced per endpoint. It runs after TenantMiddleware. Probes, the swagger
// UI and unmatched paths are served unlabelled.
func ProfileLabels(enabled bool, skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if !enabled || route == "" || slices.Contains(skipPaths, route) || strings.HasPrefix(route, "/swagger") {
			c.Next()
			return
		}
		var tenant string
		if id := GetTenantID(c); id != uuid.Nil {
			tenant = id.String()
		}
		telemetry.WithProfileLabels(c.Request.Context(), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		},
			telemetry.ProfileLabelRoute, route,
			telemetry.ProfileLabelMethod, c.Request.Method,
			telemetry.ProfileLabelTenant, tenant,
		)
	}
}
