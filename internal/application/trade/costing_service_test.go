package trade

import (
	"context"
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(qty int64, price, discount int64) LineItemInput {
	return LineItemInput{
		Quantity:     decimal.NewFromInt(qty),
		UnitPrice:    valueobject.NewMoney(price),
		UnitDiscount: valueobject.NewMoney(discount),
	}
}

func overheadShares(a AllocationResponse) []int64 {
	out := make([]int64, len(a.Lines))
	for i, l := range a.Lines {
		out[i] = l.AllocatedOverhead.Cents()
	}
	return out
}

func TestCostingService_Recalculate(t *testing.T) {
	svc := NewCostingService(nil)
	ctx := context.Background()

	t.Run("proportional and exact differ only in the remainder", func(t *testing.T) {
		resp, err := svc.Recalculate(ctx, RecalculateCostsRequest{
			Items:         []LineItemInput{line(1, 333, 0), line(1, 333, 0), line(1, 334, 0)},
			Freight:       valueobject.NewMoney(60),
			Insurance:     valueobject.NewMoney(30),
			OtherExpenses: valueobject.NewMoney(10),
		})
		require.NoError(t, err)

		assert.Equal(t, int64(1000), resp.GoodsTotal.Cents())
		assert.Equal(t, int64(100), resp.OverheadTotal.Cents())

		assert.Equal(t, []int64{33, 33, 33}, overheadShares(resp.Proportional))
		assert.Equal(t, int64(1), resp.Proportional.RoundingDifference.Cents())

		assert.Equal(t, []int64{33, 33, 34}, overheadShares(resp.Exact))
		assert.True(t, resp.Exact.RoundingDifference.IsZero())
		assert.Equal(t, int64(1100), resp.Exact.GrandTotal.Cents())
		assert.Equal(t, "EXACT", resp.Exact.Mode)
	})

	t.Run("final costs use net price and quantity", func(t *testing.T) {
		resp, err := svc.Recalculate(ctx, RecalculateCostsRequest{
			Items:   []LineItemInput{line(4, 1000, 250), line(2, 500, 0)},
			Freight: valueobject.NewMoney(400),
		})
		require.NoError(t, err)

		first := resp.Exact.Lines[0]
		assert.Equal(t, int64(750), first.NetUnitPrice.Cents())
		assert.Equal(t, int64(3000), first.LineTotal.Cents())
		assert.Equal(t, int64(300), first.AllocatedOverhead.Cents())
		assert.Equal(t, int64(3300), first.FinalLineCost.Cents())
		assert.Equal(t, int64(825), first.FinalUnitCost.Cents())
		assert.Equal(t, 2, resp.Exact.Lines[1].LineNumber)
	})

	t.Run("zero goods total allocates nothing", func(t *testing.T) {
		resp, err := svc.Recalculate(ctx, RecalculateCostsRequest{
			Items:   []LineItemInput{line(0, 1000, 0), line(3, 0, 0)},
			Freight: valueobject.NewMoney(500),
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 0}, overheadShares(resp.Proportional))
		assert.Equal(t, []int64{0, 0}, overheadShares(resp.Exact))
		assert.True(t, resp.Exact.Lines[0].FinalUnitCost.IsZero())
	})

	t.Run("empty input", func(t *testing.T) {
		resp, err := svc.Recalculate(ctx, RecalculateCostsRequest{Freight: valueobject.NewMoney(10)})
		require.NoError(t, err)
		assert.Empty(t, resp.Proportional.Lines)
		assert.Empty(t, resp.Exact.Lines)
	})

	t.Run("invalid line names its position", func(t *testing.T) {
		_, err := svc.Recalculate(ctx, RecalculateCostsRequest{
			Items: []LineItemInput{line(1, 100, 0), line(1, 100, 200)},
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
		assert.Contains(t, err.Error(), "Line 2")
	})

	t.Run("line total beyond range is a validation error naming the line", func(t *testing.T) {
		resp, err := svc.Recalculate(ctx, RecalculateCostsRequest{
			Items:   []LineItemInput{line(1, 100, 0), line(10_000_000_000, 10_000_000_000, 0)},
			Freight: valueobject.NewMoney(500),
		})
		assert.Nil(t, resp)
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
		assert.Contains(t, err.Error(), "Line 2")
	})

	t.Run("negative overhead", func(t *testing.T) {
		_, err := svc.Recalculate(ctx, RecalculateCostsRequest{
			Items:     []LineItemInput{line(1, 100, 0)},
			Insurance: valueobject.NewMoney(-1),
		})
		assert.True(t, shared.IsValidation(err))
	})
}
