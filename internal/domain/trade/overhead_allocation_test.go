package trade

import (
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(qty int64, price, discount int64) LineItem {
	return LineItem{
		Quantity:     decimal.NewFromInt(qty),
		UnitPrice:    valueobject.NewMoney(price),
		UnitDiscount: valueobject.NewMoney(discount),
	}
}

func shares(lines []AllocatedLine) []int64 {
	out := make([]int64, len(lines))
	for i, l := range lines {
		out[i] = l.AllocatedOverhead.Cents()
	}
	return out
}

func TestLineItem_Totals(t *testing.T) {
	li := item(3, 1000, 150)

	assert.Equal(t, int64(850), li.NetUnitPrice().Cents())
	total, err := li.LineTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(2550), total.Cents())
}

func TestLineItem_FractionalQuantityRoundsToCent(t *testing.T) {
	li := LineItem{Quantity: decimal.RequireFromString("1.5"), UnitPrice: valueobject.NewMoney(333)}
	// 333 * 1.5 = 499.5
	total, err := li.LineTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(500), total.Cents())
}

func TestLineItem_TotalBeyondRange(t *testing.T) {
	li := LineItem{Quantity: decimal.NewFromInt(10_000_000_000), UnitPrice: valueobject.NewMoney(10_000_000_000)}

	_, err := li.LineTotal()
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "AMOUNT_OUT_OF_RANGE", de.Code)
}

func TestAllocateOverhead_RangeErrorsNameTheLine(t *testing.T) {
	huge := LineItem{Quantity: decimal.NewFromInt(10_000_000_000), UnitPrice: valueobject.NewMoney(10_000_000_000)}
	half := item(1, valueobject.MaxCents/2+1, 0)

	tests := []struct {
		name     string
		items    []LineItem
		overhead int64
		message  string
	}{
		{"line total wraps int64", []LineItem{item(1, 100, 0), huge}, 500, "Line 2: Line total"},
		{"goods total beyond range", []LineItem{half, half}, 0, "Line 2: Goods total"},
		{"final line cost beyond range", []LineItem{item(1, valueobject.MaxCents, 0)}, 1, "Line 1: Final line cost"},
		{"unit cost beyond range", []LineItem{{Quantity: decimal.RequireFromString("0.001"), UnitPrice: valueobject.NewMoney(valueobject.MaxCents)}}, 0, "Line 1: Final unit cost"},
	}
	for _, tt := range tests {
		for _, mode := range []AllocationMode{AllocationProportional, AllocationExact} {
			t.Run(tt.name+"/"+mode.String(), func(t *testing.T) {
				lines, err := Allocate(mode, tt.items, valueobject.NewMoney(tt.overhead))
				assert.Nil(t, lines)
				require.Error(t, err)
				var de *shared.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, shared.KindValidation, de.Kind)
				assert.Equal(t, "AMOUNT_OUT_OF_RANGE", de.Code)
				assert.Contains(t, de.Message, tt.message)
			})
		}
	}
}

func TestOverhead_ValidateRange(t *testing.T) {
	assert.NoError(t, Overhead{Freight: valueobject.NewMoney(valueobject.MaxCents)}.Validate())

	err := Overhead{
		Freight:   valueobject.NewMoney(valueobject.MaxCents),
		Insurance: valueobject.NewMoney(1),
	}.Validate()
	assert.True(t, shared.IsValidation(err))
}

func TestNewLineItem_Validation(t *testing.T) {
	_, err := NewLineItem(decimal.NewFromInt(-1), valueobject.NewMoney(100), valueobject.Zero())
	assert.True(t, shared.IsValidation(err))

	_, err = NewLineItem(decimal.NewFromInt(1), valueobject.NewMoney(100), valueobject.NewMoney(101))
	assert.True(t, shared.IsValidation(err))

	_, err = NewLineItem(decimal.NewFromInt(1), valueobject.NewMoney(-5), valueobject.Zero())
	assert.True(t, shared.IsValidation(err))
}

func TestAllocateOverheadExact_ThreeLines(t *testing.T) {
	items := []LineItem{item(1, 333, 0), item(1, 333, 0), item(1, 334, 0)}

	lines, err := AllocateOverheadExact(items, valueobject.NewMoney(100))
	require.NoError(t, err)

	assert.Equal(t, []int64{33, 33, 34}, shares(lines))
	assert.Equal(t, int64(366), lines[0].FinalLineCost.Cents())
	assert.Equal(t, int64(368), lines[2].FinalLineCost.Cents())
}

func TestAllocateOverhead_ProportionalDoesNotFixRemainder(t *testing.T) {
	items := []LineItem{item(1, 333, 0), item(1, 333, 0), item(1, 334, 0)}

	lines, err := AllocateOverhead(items, valueobject.NewMoney(100))
	require.NoError(t, err)

	assert.Equal(t, []int64{33, 33, 33}, shares(lines))
}

func TestAllocateOverheadExact_SumMatchesOverhead(t *testing.T) {
	items := []LineItem{item(7, 129, 3), item(2, 4999, 0), item(13, 17, 1), item(1, 1, 0)}

	for overhead := int64(0); overhead <= 5000; overhead += 113 {
		lines, err := AllocateOverheadExact(items, valueobject.NewMoney(overhead))
		require.NoError(t, err)

		var sum int64
		for _, l := range lines {
			sum += l.AllocatedOverhead.Cents()
			assert.Equal(t, l.LineTotal.Add(l.AllocatedOverhead), l.FinalLineCost)
		}
		assert.Equal(t, overhead, sum)
	}
}

func TestAllocateOverhead_ZeroLineTotals(t *testing.T) {
	items := []LineItem{item(1, 0, 0), item(5, 100, 100)}

	for _, fn := range []func([]LineItem, valueobject.Money) ([]AllocatedLine, error){AllocateOverhead, AllocateOverheadExact} {
		lines, err := fn(items, valueobject.NewMoney(900))
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 0}, shares(lines))
	}
}

func TestAllocateOverhead_EmptyItems(t *testing.T) {
	lines, err := AllocateOverheadExact(nil, valueobject.NewMoney(100))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestAllocateOverhead_RejectsNegativeOverhead(t *testing.T) {
	_, err := AllocateOverhead([]LineItem{item(1, 100, 0)}, valueobject.NewMoney(-1))
	assert.True(t, shared.IsValidation(err))
}

func TestAllocateOverhead_FinalUnitCost(t *testing.T) {
	lines, err := AllocateOverheadExact([]LineItem{item(4, 250, 0), item(0, 100, 0)}, valueobject.NewMoney(200))
	require.NoError(t, err)

	// 1000 + 200 over 4 units
	assert.Equal(t, int64(300), lines[0].FinalUnitCost.Cents())
	assert.True(t, lines[1].FinalUnitCost.IsZero())
}

func TestAllocate_UnknownMode(t *testing.T) {
	_, err := Allocate(AllocationMode("FIFO"), nil, valueobject.Zero())
	assert.True(t, shared.IsValidation(err))
}
