package handler

import (
	"context"

	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// CostCalculator allocates a transaction's overhead across its lines
type CostCalculator interface {
	Recalculate(ctx context.Context, req tradeapp.RecalculateCostsRequest) (*tradeapp.CostingResponse, error)
}

// CostingHandler handles landed-cost allocation
type CostingHandler struct {
	BaseHandler
	costing CostCalculator
}

// NewCostingHandler creates a new CostingHandler
func NewCostingHandler(costing CostCalculator) *CostingHandler {
	return &CostingHandler{costing: costing}
}

// Allocate godoc
// @Summary      Allocate overhead across line items
// @Description  Spread freight, insurance and other expenses over the lines by value. Returns the half-up proportional split and the exact split whose shares sum to the overhead.
// @Tags         trade-costing
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.RecalculateCostsRequest true "Lines and overhead, amounts in cents"
// @Success      200 {object} APIResponse[tradeapp.CostingResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /trade/costing/allocate [post]
func (h *CostingHandler) Allocate(c *gin.Context) {
	var req tradeapp.RecalculateCostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	result, err := h.costing.Recalculate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
