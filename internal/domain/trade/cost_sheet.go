package trade

import (
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CostSheet holds the line items and ancillary costs of one transaction together
// with their current allocation. Every mutation recomputes the whole allocation.
type CostSheet struct {
	mode     AllocationMode
	items    []LineItem
	overhead Overhead
	lines    []AllocatedLine
}

// NewCostSheet creates a cost sheet and computes its initial allocation
func NewCostSheet(mode AllocationMode, items []LineItem, overhead Overhead) (*CostSheet, error) {
	if !mode.IsValid() {
		return nil, shared.NewValidationError("INVALID_ALLOCATION_MODE", fmt.Sprintf("Unknown allocation mode: %s", mode))
	}
	if err := overhead.Validate(); err != nil {
		return nil, err
	}
	cs := &CostSheet{
		mode:     mode,
		items:    append([]LineItem(nil), items...),
		overhead: overhead,
	}
	if err := cs.recalculate(); err != nil {
		return nil, err
	}
	return cs, nil
}

// UpdateItem replaces the quantity, unit price and unit discount of the item at index
func (cs *CostSheet) UpdateItem(index int, quantity decimal.Decimal, unitPrice, unitDiscount valueobject.Money) error {
	if index < 0 || index >= len(cs.items) {
		return shared.NewNotFoundError("LINE_NOT_FOUND", fmt.Sprintf("Line %d does not exist", index+1))
	}
	item, err := NewLineItem(quantity, unitPrice, unitDiscount)
	if err != nil {
		return err
	}
	previous := cs.items[index]
	cs.items[index] = item
	if err := cs.recalculate(); err != nil {
		cs.items[index] = previous
		return err
	}
	return nil
}

// AddItem appends a line item
func (cs *CostSheet) AddItem(item LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	cs.items = append(cs.items, item)
	return cs.recalculate()
}

// RemoveItem deletes the item at index
func (cs *CostSheet) RemoveItem(index int) error {
	if index < 0 || index >= len(cs.items) {
		return shared.NewNotFoundError("LINE_NOT_FOUND", fmt.Sprintf("Line %d does not exist", index+1))
	}
	cs.items = append(cs.items[:index], cs.items[index+1:]...)
	return cs.recalculate()
}

// UpdateOverhead replaces freight, insurance and other expenses
func (cs *CostSheet) UpdateOverhead(overhead Overhead) error {
	if err := overhead.Validate(); err != nil {
		return err
	}
	cs.overhead = overhead
	return cs.recalculate()
}

// Mode returns the allocation mode
func (cs *CostSheet) Mode() AllocationMode {
	return cs.mode
}

// Items returns a copy of the line items
func (cs *CostSheet) Items() []LineItem {
	return append([]LineItem(nil), cs.items...)
}

// Overhead returns the ancillary costs
func (cs *CostSheet) Overhead() Overhead {
	return cs.overhead
}

// Lines returns a copy of the current allocation
func (cs *CostSheet) Lines() []AllocatedLine {
	return append([]AllocatedLine(nil), cs.lines...)
}

// GoodsTotal returns the sum of line totals
func (cs *CostSheet) GoodsTotal() valueobject.Money {
	total := valueobject.Zero()
	for _, l := range cs.lines {
		total = total.Add(l.LineTotal)
	}
	return total
}

// AllocatedTotal returns the sum of allocated overhead shares
func (cs *CostSheet) AllocatedTotal() valueobject.Money {
	total := valueobject.Zero()
	for _, l := range cs.lines {
		total = total.Add(l.AllocatedOverhead)
	}
	return total
}

// GrandTotal returns goods total plus allocated overhead
func (cs *CostSheet) GrandTotal() valueobject.Money {
	return cs.GoodsTotal().Add(cs.AllocatedTotal())
}

func (cs *CostSheet) recalculate() error {
	lines, err := Allocate(cs.mode, cs.items, cs.overhead.Total())
	if err != nil {
		return err
	}
	cs.lines = lines
	return nil
}
