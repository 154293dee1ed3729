package trade

import (
	"errors"
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/service"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AllocationMode selects how overhead rounding is handled
type AllocationMode string

const (
	// AllocationProportional rounds each share independently; the shares may miss the total by a few cents
	AllocationProportional AllocationMode = "PROPORTIONAL"
	// AllocationExact assigns the rounding remainder to the last item so the shares sum to the total
	AllocationExact AllocationMode = "EXACT"
)

// IsValid checks if the allocation mode is valid
func (m AllocationMode) IsValid() bool {
	switch m {
	case AllocationProportional, AllocationExact:
		return true
	}
	return false
}

// String returns the string representation of AllocationMode
func (m AllocationMode) String() string {
	return string(m)
}

// LineItem is one priced line of a purchase or sale
type LineItem struct {
	Quantity     decimal.Decimal
	UnitPrice    valueobject.Money
	UnitDiscount valueobject.Money
}

// NewLineItem creates a validated line item
func NewLineItem(quantity decimal.Decimal, unitPrice, unitDiscount valueobject.Money) (LineItem, error) {
	item := LineItem{Quantity: quantity, UnitPrice: unitPrice, UnitDiscount: unitDiscount}
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	return item, nil
}

// Validate checks the line item values
func (l LineItem) Validate() error {
	if l.Quantity.IsNegative() {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if l.UnitPrice.IsNegative() {
		return shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !l.UnitPrice.InRange() {
		return shared.NewValidationError("AMOUNT_OUT_OF_RANGE", "Unit price exceeds the maximum amount")
	}
	if l.UnitDiscount.IsNegative() {
		return shared.NewValidationError("INVALID_DISCOUNT", "Unit discount cannot be negative")
	}
	if l.UnitDiscount.GreaterThan(l.UnitPrice) {
		return shared.NewValidationError("INVALID_DISCOUNT", "Unit discount cannot exceed unit price")
	}
	return nil
}

// NetUnitPrice returns unit price minus unit discount
func (l LineItem) NetUnitPrice() valueobject.Money {
	return l.UnitPrice.Subtract(l.UnitDiscount)
}

// LineTotal returns net unit price times quantity, rounded to the cent. A
// product beyond valueobject.MaxCents is a validation error.
func (l LineItem) LineTotal() (valueobject.Money, error) {
	total, err := valueobject.RoundCents(decimal.NewFromInt(l.NetUnitPrice().Cents()).Mul(l.Quantity))
	if err != nil {
		return valueobject.Money{}, outOfRange("Line total", err)
	}
	return total, nil
}

// Overhead holds the ancillary costs of a transaction
type Overhead struct {
	Freight       valueobject.Money
	Insurance     valueobject.Money
	OtherExpenses valueobject.Money
}

// Total returns freight + insurance + other expenses
func (o Overhead) Total() valueobject.Money {
	return o.Freight.Add(o.Insurance).Add(o.OtherExpenses)
}

// Validate checks that no ancillary cost is negative and that each cost and
// their total stay within valueobject.MaxCents
func (o Overhead) Validate() error {
	if o.Freight.IsNegative() || o.Insurance.IsNegative() || o.OtherExpenses.IsNegative() {
		return shared.NewValidationError("INVALID_OVERHEAD", "Freight, insurance and other expenses cannot be negative")
	}
	if !o.Freight.InRange() || !o.Insurance.InRange() || !o.OtherExpenses.InRange() || !o.Total().InRange() {
		return shared.NewValidationError("AMOUNT_OUT_OF_RANGE", "Overhead exceeds the maximum amount")
	}
	return nil
}

// AllocatedLine is the costing result of one line item
type AllocatedLine struct {
	LineTotal         valueobject.Money
	AllocatedOverhead valueobject.Money
	FinalLineCost     valueobject.Money
	FinalUnitCost     valueobject.Money
}

// AllocateOverhead distributes overhead across items in proportion to their line
// totals, rounding each share to the nearest cent on its own.
func AllocateOverhead(items []LineItem, overhead valueobject.Money) ([]AllocatedLine, error) {
	return allocate(items, overhead, service.DistributeRounded)
}

// AllocateOverheadExact distributes overhead across items in proportion to their
// line totals and guarantees the shares sum to overhead.
func AllocateOverheadExact(items []LineItem, overhead valueobject.Money) ([]AllocatedLine, error) {
	return allocate(items, overhead, service.DistributeExactly)
}

// Allocate dispatches to the allocator selected by mode
func Allocate(mode AllocationMode, items []LineItem, overhead valueobject.Money) ([]AllocatedLine, error) {
	switch mode {
	case AllocationProportional:
		return AllocateOverhead(items, overhead)
	case AllocationExact:
		return AllocateOverheadExact(items, overhead)
	default:
		return nil, shared.NewValidationError("INVALID_ALLOCATION_MODE", fmt.Sprintf("Unknown allocation mode: %s", mode))
	}
}

type distributor func(total int64, weights []int64) ([]int64, error)

func allocate(items []LineItem, overhead valueobject.Money, distribute distributor) ([]AllocatedLine, error) {
	if overhead.IsNegative() {
		return nil, shared.NewValidationError("INVALID_OVERHEAD", "Overhead total cannot be negative")
	}
	if !overhead.InRange() {
		return nil, shared.NewValidationError("AMOUNT_OUT_OF_RANGE", "Overhead exceeds the maximum amount")
	}
	if len(items) == 0 {
		return []AllocatedLine{}, nil
	}

	totals := make([]valueobject.Money, len(items))
	weights := make([]int64, len(items))
	goods := valueobject.Zero()
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, atLine(i, err)
		}
		total, err := item.LineTotal()
		if err != nil {
			return nil, atLine(i, err)
		}
		if goods = goods.Add(total); !goods.InRange() {
			return nil, atLine(i, shared.NewValidationError("AMOUNT_OUT_OF_RANGE", "Goods total exceeds the maximum amount"))
		}
		totals[i] = total
		weights[i] = total.Cents()
	}

	shares, err := distribute(overhead.Cents(), weights)
	if err != nil {
		return nil, err
	}

	lines := make([]AllocatedLine, len(items))
	for i, item := range items {
		share := valueobject.NewMoney(shares[i])
		finalLine := totals[i].Add(share)
		if !finalLine.InRange() {
			return nil, atLine(i, shared.NewValidationError("AMOUNT_OUT_OF_RANGE", "Final line cost exceeds the maximum amount"))
		}
		finalUnit, err := unitCost(finalLine, item.Quantity)
		if err != nil {
			return nil, atLine(i, err)
		}
		lines[i] = AllocatedLine{
			LineTotal:         totals[i],
			AllocatedOverhead: share,
			FinalLineCost:     finalLine,
			FinalUnitCost:     finalUnit,
		}
	}
	return lines, nil
}

func unitCost(lineCost valueobject.Money, quantity decimal.Decimal) (valueobject.Money, error) {
	if quantity.IsZero() {
		return valueobject.Zero(), nil
	}
	cost, err := valueobject.RoundCents(decimal.NewFromInt(lineCost.Cents()).Div(quantity))
	if err != nil {
		return valueobject.Money{}, outOfRange("Final unit cost", err)
	}
	return cost, nil
}

func outOfRange(what string, err error) error {
	if errors.Is(err, valueobject.ErrAmountOutOfRange) {
		return shared.NewValidationError("AMOUNT_OUT_OF_RANGE", what+" exceeds the maximum amount")
	}
	return err
}

// atLine prefixes a domain error message with the 1-based line number
func atLine(index int, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return shared.NewValidationError(de.Code, fmt.Sprintf("Line %d: %s", index+1, de.Message))
	}
	return fmt.Errorf("line %d: %w", index+1, err)
}
