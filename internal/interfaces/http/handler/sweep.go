package handler

import (
	"context"

	financeapp "github.com/erp/backoffice/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// OverdueSweeper marks every past-due open document as overdue
type OverdueSweeper interface {
	Sweep(ctx context.Context) (*financeapp.SweepResponse, error)
}

// SweepHandler exposes the overdue sweep for manual runs
type SweepHandler struct {
	BaseHandler
	sweeper OverdueSweeper
}

// NewSweepHandler creates a new SweepHandler
func NewSweepHandler(sweeper OverdueSweeper) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// Run godoc
// @Summary      Run the overdue sweep
// @Description  Mark open documents whose due date has passed as OVERDUE. Running it twice on the same day marks nothing the second time.
// @Tags         finance-maintenance
// @Produce      json
// @Success      200 {object} APIResponse[financeapp.SweepResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /finance/overdue-sweep [post]
func (h *SweepHandler) Run(c *gin.Context) {
	result, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
