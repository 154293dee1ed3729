package middleware

import (
	"net/http"
	"slices"

	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
	ActorIDKey      = "actor_id"
	ActorHeaderKey  = "X-Actor-ID"
)

// DefaultTenantID serves single-tenant deployments whose clients send no
// X-Tenant-ID.
var DefaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type TenantMiddlewareConfig struct {
	// DefaultTenant applies when X-Tenant-ID is absent. uuid.Nil makes the
	// header mandatory.
	DefaultTenant uuid.UUID
	// SkipPaths are served without a tenant (probes).
	SkipPaths []string
}

func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		DefaultTenant: DefaultTenantID,
		SkipPaths:     []string{"/health", "/ready"},
	}
}

// TenantMiddleware resolves the owning tenant from X-Tenant-ID and the
// optional acting user from X-Actor-ID, storing both in the gin context and
// in the request context for logging. A malformed id answers 400.
func TenantMiddleware(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		tenantID, ok := headerUUID(c, TenantHeaderKey)
		if !ok {
			return
		}
		if tenantID == uuid.Nil {
			tenantID = cfg.DefaultTenant
		}
		if tenantID == uuid.Nil {
			rejectHeader(c, TenantHeaderKey+" header is required")
			return
		}
		actorID, ok := headerUUID(c, ActorHeaderKey)
		if !ok {
			return
		}

		ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
		c.Set(TenantIDKey, tenantID)
		if actorID != uuid.Nil {
			ctx = logger.WithActorID(ctx, actorID.String())
			c.Set(ActorIDKey, actorID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// headerUUID parses an optional uuid header. An absent header yields
// uuid.Nil; a malformed one aborts the request and reports false.
func headerUUID(c *gin.Context, header string) (uuid.UUID, bool) {
	raw := c.GetHeader(header)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		rejectHeader(c, "Invalid "+header+" header")
		return uuid.Nil, false
	}
	return id, true
}

func rejectHeader(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.Failure(dto.ErrCodeBadRequest, message, GetRequestID(c)))
}

// GetTenantID returns the tenant resolved by TenantMiddleware, or uuid.Nil.
func GetTenantID(c *gin.Context) uuid.UUID {
	id, _ := contextUUID(c, TenantIDKey)
	return id
}

// GetActorID returns the acting user, or nil when the request named none.
func GetActorID(c *gin.Context) *uuid.UUID {
	if id, ok := contextUUID(c, ActorIDKey); ok {
		return &id
	}
	return nil
}

func contextUUID(c *gin.Context, key string) (uuid.UUID, bool) {
	v, _ := c.Get(key)
	id, ok := v.(uuid.UUID)
	return id, ok
}
