package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CostingService allocates a transaction's freight, insurance and other
// expenses across its line items. It never patches a single line: every call
// recomputes the allocation of the full set.
type CostingService struct {
	logger *zap.Logger
}

// NewCostingService creates a new CostingService
func NewCostingService(l *zap.Logger) *CostingService {
	if l == nil {
		l = zap.NewNop()
	}
	return &CostingService{logger: l}
}

// Recalculate returns the proportional and the exact allocation of the request
func (s *CostingService) Recalculate(ctx context.Context, req RecalculateCostsRequest) (*CostingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "costing", "recalculate",
		telemetry.AttrCostingLines.Int(len(req.Items)))
	defer span.End()

	items := make([]trade.LineItem, len(req.Items))
	for i, in := range req.Items {
		item, err := trade.NewLineItem(in.Quantity, in.UnitPrice, in.UnitDiscount)
		if err != nil {
			return nil, lineError(i, err)
		}
		items[i] = item
	}
	overhead := trade.Overhead{
		Freight:       req.Freight,
		Insurance:     req.Insurance,
		OtherExpenses: req.OtherExpenses,
	}

	proportional, err := trade.NewCostSheet(trade.AllocationProportional, items, overhead)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	exact, err := trade.NewCostSheet(trade.AllocationExact, items, overhead)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	resp := &CostingResponse{
		GoodsTotal:    exact.GoodsTotal(),
		OverheadTotal: overhead.Total(),
		Proportional:  toAllocationResponse(proportional),
		Exact:         toAllocationResponse(exact),
	}
	logger.Enrich(ctx, logger.FromContextOr(ctx, s.logger)).Debug("costs recalculated",
		zap.Int("lines", len(items)),
		zap.Int64("overhead_cents", resp.OverheadTotal.Cents()),
		zap.Int64("rounding_difference_cents", resp.Proportional.RoundingDifference.Cents()),
	)
	return resp, nil
}

func (s *CostingService) fail(ctx context.Context, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	logger.Enrich(ctx, logger.FromContextOr(ctx, s.logger)).Error("cost allocation failed", zap.Error(err))
	return shared.NewInternalError("failed to allocate overhead", err)
}

func lineError(index int, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return shared.NewValidationError(de.Code, fmt.Sprintf("Line %d: %s", index+1, de.Message))
	}
	return err
}
