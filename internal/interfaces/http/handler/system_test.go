package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSystemEngine(h *SystemHandler) *gin.Engine {
	engine := newTestEngine()
	engine.GET("/health", h.Health)
	engine.GET("/ready", h.Ready)
	return engine
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("1.2.3", ReadinessCheck{Name: "database", Check: func(context.Context) error {
		return errors.New("down")
	}})

	w := serve(newSystemEngine(h), testRequest{method: http.MethodGet, path: "/health"})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Data.Status)
	assert.Equal(t, "1.2.3", resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)
}

func TestSystemHandler_Ready(t *testing.T) {
	ok := func(context.Context) error { return nil }

	t.Run("all checks pass", func(t *testing.T) {
		h := NewSystemHandler("dev", ReadinessCheck{Name: "database", Check: ok}, ReadinessCheck{Name: "redis", Check: ok})
		w := serve(newSystemEngine(h), testRequest{method: http.MethodGet, path: "/ready"})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[ReadyResponse](t, w)
		assert.Equal(t, "ready", resp.Data.Status)
		assert.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, resp.Data.Checks)
	})

	t.Run("a failing check makes the service unavailable", func(t *testing.T) {
		var sawDeadline bool
		h := NewSystemHandler("dev",
			ReadinessCheck{Name: "database", Check: func(ctx context.Context) error {
				_, sawDeadline = ctx.Deadline()
				return errors.New("connection refused")
			}},
			ReadinessCheck{Name: "redis", Check: ok},
		)
		w := serve(newSystemEngine(h), testRequest{method: http.MethodGet, path: "/ready"})

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode[ReadyResponse](t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeUnavailable, resp.Error.Code)
		assert.Equal(t, "connection refused", resp.Data.Checks["database"])
		assert.Equal(t, "ok", resp.Data.Checks["redis"])
		assert.True(t, sawDeadline)
	})
}
