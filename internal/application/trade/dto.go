package trade

import (
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// LineItemInput is one priced line of a transaction
type LineItemInput struct {
	Quantity     decimal.Decimal   `json:"quantity"`
	UnitPrice    valueobject.Money `json:"unit_price"`
	UnitDiscount valueobject.Money `json:"unit_discount"`
}

// RecalculateCostsRequest carries every input of a transaction's costing.
// Any change to one of them requires sending the whole set again.
type RecalculateCostsRequest struct {
	Items         []LineItemInput   `json:"items"`
	Freight       valueobject.Money `json:"freight"`
	Insurance     valueobject.Money `json:"insurance"`
	OtherExpenses valueobject.Money `json:"other_expenses"`
}

// AllocatedLineResponse is the costing result of one line
type AllocatedLineResponse struct {
	LineNumber        int               `json:"line_number"`
	Quantity          decimal.Decimal   `json:"quantity"`
	NetUnitPrice      valueobject.Money `json:"net_unit_price"`
	LineTotal         valueobject.Money `json:"line_total"`
	AllocatedOverhead valueobject.Money `json:"allocated_overhead"`
	FinalLineCost     valueobject.Money `json:"final_line_cost"`
	FinalUnitCost     valueobject.Money `json:"final_unit_cost"`
}

// AllocationResponse is one allocation of the overhead across the lines
type AllocationResponse struct {
	Mode           string                  `json:"mode"`
	Lines          []AllocatedLineResponse `json:"lines"`
	AllocatedTotal valueobject.Money       `json:"allocated_total"`
	GrandTotal     valueobject.Money       `json:"grand_total"`
	// RoundingDifference is overhead total minus allocated total; always zero for EXACT
	RoundingDifference valueobject.Money `json:"rounding_difference"`
}

// CostingResponse holds both allocations of the same inputs
type CostingResponse struct {
	GoodsTotal    valueobject.Money  `json:"goods_total"`
	OverheadTotal valueobject.Money  `json:"overhead_total"`
	Proportional  AllocationResponse `json:"proportional"`
	Exact         AllocationResponse `json:"exact"`
}

func toAllocationResponse(sheet *trade.CostSheet) AllocationResponse {
	items := sheet.Items()
	lines := sheet.Lines()
	out := AllocationResponse{
		Mode:               sheet.Mode().String(),
		Lines:              make([]AllocatedLineResponse, len(lines)),
		AllocatedTotal:     sheet.AllocatedTotal(),
		GrandTotal:         sheet.GrandTotal(),
		RoundingDifference: sheet.Overhead().Total().Subtract(sheet.AllocatedTotal()),
	}
	for i, l := range lines {
		out.Lines[i] = AllocatedLineResponse{
			LineNumber:        i + 1,
			Quantity:          items[i].Quantity,
			NetUnitPrice:      items[i].NetUnitPrice(),
			LineTotal:         l.LineTotal,
			AllocatedOverhead: l.AllocatedOverhead,
			FinalLineCost:     l.FinalLineCost,
			FinalUnitCost:     l.FinalUnitCost,
		}
	}
	return out
}
