// Package middleware provides the gin middleware of the finance API.
package middleware

import (
	"net/http"
	"slices"

	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	attrRequestID = attribute.Key("request_id")
	attrActorID   = attribute.Key("actor_id")
)

type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are not traced. Probes would otherwise dominate the traces.
	SkipPaths []string
}

func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "finengine",
		Enabled:     true,
		SkipPaths:   []string{"/health", "/ready"},
	}
}

// Tracing starts a server span per request through otelgin, named after
// the method and route template ("GET /api/v1/finance/documents/:id").
// With tracing disabled it passes requests through.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	var opts []otelgin.Option
	if len(cfg.SkipPaths) > 0 {
		skip := cfg.SkipPaths
		opts = append(opts, otelgin.WithFilter(func(r *http.Request) bool {
			return !slices.Contains(skip, r.URL.Path)
		}))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanAttributes tags the request span with the request, tenant and actor
// ids and marks 4xx responses as failed. It must run after TenantMiddleware.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		attrs := make([]attribute.KeyValue, 0, 3)
		if id := GetRequestID(c); id != "" {
			attrs = append(attrs, attrRequestID.String(id))
		}
		if id := GetTenantID(c); id != uuid.Nil {
			attrs = append(attrs, telemetry.AttrTenantID.String(id.String()))
		}
		if id := GetActorID(c); id != nil {
			attrs = append(attrs, attrActorID.String(id.String()))
		}
		span.SetAttributes(attrs...)

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetAttributes(telemetry.AttrHTTPStatus.Int(status))
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
