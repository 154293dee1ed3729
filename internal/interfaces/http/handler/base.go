// Package handler holds the gin handlers of the finance API.
package handler

import (
	"net/http"

	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler is embedded by every handler for the response envelope.
type BaseHandler struct{}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.Success(data))
}

func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.Paged(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.Success(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BindingError answers a failed ShouldBind call.
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError answers a service error with the status of its kind. Server
// side failures are logged with the request context; the client only sees
// a generic message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, resp := dto.FromError(err, middleware.GetRequestID(c))
	if status >= http.StatusInternalServerError {
		logger.Enrich(c.Request.Context(), logger.GetGinLogger(c)).Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, resp)
}

// pathID parses the uuid path parameter name, answering 400 when it is
// malformed. label names the resource in the message.
func (h *BaseHandler) pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Failure(dto.ErrCodeBadRequest,
			"Invalid "+label+" ID format", middleware.GetRequestID(c)))
		return uuid.Nil, false
	}
	return id, true
}

func tenantID(c *gin.Context) uuid.UUID { return middleware.GetTenantID(c) }

func actorID(c *gin.Context) *uuid.UUID { return middleware.GetActorID(c) }
