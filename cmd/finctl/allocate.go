package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newAllocateCmd(opts *globalOptions) *cobra.Command {
	var (
		lines                     []string
		freight, insurance, other string
		mode                      string
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate freight, insurance and other expenses across line items",
		Long: `allocate distributes the overhead across the lines in proportion to
each line's total. PROPORTIONAL rounds every share half-up and may leave a
rounding difference; EXACT hands the difference to the last line so the shares
add up to the overhead.

A line is quantity:unit_price[:unit_discount], prices in major units.`,
		Example: `  finctl allocate --line 1:3.33 --line 1:3.33 --line 1:3.34 --freight 0.60 --insurance 0.30 --other 0.10
  finctl allocate --line 4:10.00:2.50 --line 2:5.00 --freight 4.00 --mode exact -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode = strings.ToLower(mode)
			if mode != "both" && mode != "proportional" && mode != "exact" {
				return fmt.Errorf("unknown --mode %q (use both, proportional or exact)", mode)
			}
			req := tradeapp.RecalculateCostsRequest{}
			for _, raw := range lines {
				item, err := parseLine(raw)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
			}
			var err error
			if req.Freight, err = parseAmountFlag("freight", freight); err != nil {
				return err
			}
			if req.Insurance, err = parseAmountFlag("insurance", insurance); err != nil {
				return err
			}
			if req.OtherExpenses, err = parseAmountFlag("other", other); err != nil {
				return err
			}

			resp, err := tradeapp.NewCostingService(nil).Recalculate(cmd.Context(), req)
			if err != nil {
				return err
			}
			var allocations []tradeapp.AllocationResponse
			switch mode {
			case "proportional":
				allocations = []tradeapp.AllocationResponse{resp.Proportional}
			case "exact":
				allocations = []tradeapp.AllocationResponse{resp.Exact}
			default:
				allocations = []tradeapp.AllocationResponse{resp.Proportional, resp.Exact}
			}

			var payload any = resp
			if len(allocations) == 1 {
				payload = allocations[0]
			}
			return opts.render(cmd.OutOrStdout(), payload, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "GOODS\t%s\tOVERHEAD\t%s\n\n", opts.amount(resp.GoodsTotal), opts.amount(resp.OverheadTotal))
				for _, a := range allocations {
					fmt.Fprintf(tw, "%s\n", a.Mode)
					fmt.Fprintln(tw, "LINE\tQTY\tNET UNIT\tLINE TOTAL\tOVERHEAD\tFINAL LINE\tFINAL UNIT")
					for _, l := range a.Lines {
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", l.LineNumber, l.Quantity,
							opts.amount(l.NetUnitPrice), opts.amount(l.LineTotal), opts.amount(l.AllocatedOverhead),
							opts.amount(l.FinalLineCost), opts.amount(l.FinalUnitCost))
					}
					fmt.Fprintf(tw, "allocated %s, grand total %s, rounding difference %s\n\n",
						opts.amount(a.AllocatedTotal), opts.amount(a.GrandTotal), opts.amount(a.RoundingDifference))
				}
			})
		},
	}
	cmd.Flags().StringArrayVar(&lines, "line", nil, "Line item as quantity:unit_price[:unit_discount]; repeat per line")
	cmd.Flags().StringVar(&freight, "freight", "0", "Freight, in major units")
	cmd.Flags().StringVar(&insurance, "insurance", "0", "Insurance, in major units")
	cmd.Flags().StringVar(&other, "other", "0", "Other expenses, in major units")
	cmd.Flags().StringVar(&mode, "mode", "both", "Allocation to show: both, proportional or exact")
	return cmd
}

func parseLine(raw string) (tradeapp.LineItemInput, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return tradeapp.LineItemInput{}, fmt.Errorf("invalid --line %q: want quantity:unit_price[:unit_discount]", raw)
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		return tradeapp.LineItemInput{}, fmt.Errorf("invalid --line %q: bad quantity", raw)
	}
	item := tradeapp.LineItemInput{Quantity: qty}
	if item.UnitPrice, err = valueobject.ParseMoney(strings.TrimSpace(parts[1])); err != nil {
		return item, fmt.Errorf("invalid --line %q: bad unit price", raw)
	}
	if len(parts) == 3 {
		if item.UnitDiscount, err = valueobject.ParseMoney(strings.TrimSpace(parts[2])); err != nil {
			return item, fmt.Errorf("invalid --line %q: bad unit discount", raw)
		}
	}
	return item, nil
}

func parseAmountFlag(name, value string) (valueobject.Money, error) {
	m, err := valueobject.ParseMoney(value)
	if err != nil {
		return m, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return m, nil
}
