package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type scheduleRow struct {
	Sequence int              `json:"sequence_number"`
	DueDate  valueobject.Date `json:"due_date"`
	Days     int              `json:"days_to_payment"`
	Amount   string           `json:"amount"`
}

type scheduleOutput struct {
	BaseDate     valueobject.Date `json:"base_date"`
	Total        string           `json:"total"`
	Installments []scheduleRow    `json:"installments"`
}

func newScheduleCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Work with installment schedules",
	}
	cmd.AddCommand(newSchedulePreviewCmd(opts))
	return cmd
}

func newSchedulePreviewCmd(opts *globalOptions) *cobra.Command {
	var (
		total    string
		baseDate string
		terms    []string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Split a total into installments without saving anything",
		Long: `preview splits --total evenly across the --term entries. Every
installment but the last gets the floor of the split; the last one absorbs
the remainder, so the installments always add up to the total.

A term is days to payment, optionally followed by a percentage that is
recorded on the template but does not weight the split: "30" or "30:50".`,
		Example: `  finctl schedule preview --total 1000.00 --base-date 2024-01-10 --term 30 --term 60 --term 90`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := valueobject.ParseMoney(total)
			if err != nil {
				return fmt.Errorf("invalid --total: %w", err)
			}
			base := valueobject.Today(nil)
			if baseDate != "" {
				if base, err = valueobject.ParseDate(baseDate); err != nil {
					return fmt.Errorf("invalid --base-date: %w", err)
				}
			}
			template, err := parseTerms(terms)
			if err != nil {
				return err
			}
			installments, err := finance.GenerateInstallments(template, base, amount)
			if err != nil {
				return err
			}

			out := scheduleOutput{BaseDate: base, Total: amount.String()}
			for i, inst := range installments {
				out.Installments = append(out.Installments, scheduleRow{
					Sequence: inst.SequenceNumber,
					DueDate:  inst.DueDate,
					Days:     template.Installments[i].DaysToPayment,
					Amount:   inst.Amount.String(),
				})
			}
			return opts.render(cmd.OutOrStdout(), out, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "SEQ\tDAYS\tDUE DATE\tAMOUNT")
				for i, row := range out.Installments {
					fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", row.Sequence, row.Days, row.DueDate, opts.amount(installments[i].Amount))
				}
				fmt.Fprintf(tw, "\t\tTOTAL\t%s\n", opts.amount(amount))
			})
		},
	}
	cmd.Flags().StringVar(&total, "total", "", "Amount to split, in major units")
	cmd.Flags().StringVar(&baseDate, "base-date", "", "Date the days count from, YYYY-MM-DD (default: today, UTC)")
	cmd.Flags().StringArrayVar(&terms, "term", nil, "Installment as days[:percent]; repeat per installment")
	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("term")
	return cmd
}

// parseTerms builds a template numbering the terms in flag order
func parseTerms(terms []string) (finance.PaymentTermTemplate, error) {
	template := finance.PaymentTermTemplate{Name: "cli"}
	for i, term := range terms {
		daysPart, pctPart, hasPct := strings.Cut(term, ":")
		days, err := strconv.Atoi(strings.TrimSpace(daysPart))
		if err != nil {
			return template, fmt.Errorf("invalid --term %q: days must be an integer", term)
		}
		pct := decimal.Zero
		if hasPct {
			if pct, err = decimal.NewFromString(strings.TrimSpace(pctPart)); err != nil {
				return template, fmt.Errorf("invalid --term %q: bad percentage", term)
			}
		}
		template.Installments = append(template.Installments, finance.InstallmentSpec{
			SequenceNumber:    i + 1,
			DaysToPayment:     days,
			PercentageOfTotal: pct,
		})
	}
	return template, nil
}
