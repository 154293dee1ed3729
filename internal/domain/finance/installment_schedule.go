package finance

import (
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/service"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentSpec is one entry of a payment-term template
type InstallmentSpec struct {
	SequenceNumber    int
	DaysToPayment     int
	PercentageOfTotal decimal.Decimal
	PaymentMethodID   uuid.UUID
}

// PaymentTermTemplate is an ordered list of installment specs
type PaymentTermTemplate struct {
	ID           uuid.UUID
	Name         string
	Installments []InstallmentSpec
}

// Validate checks the template entries
func (t PaymentTermTemplate) Validate() error {
	if len(t.Installments) == 0 {
		return shared.NewValidationError("EMPTY_PAYMENT_TERM", "Payment term has no installments")
	}
	seen := make(map[int]struct{}, len(t.Installments))
	for i, spec := range t.Installments {
		if spec.SequenceNumber < 1 {
			return shared.NewValidationError("INVALID_INSTALLMENT_SEQ",
				fmt.Sprintf("Installment %d: sequence number must start at 1", i+1))
		}
		if _, dup := seen[spec.SequenceNumber]; dup {
			return shared.NewValidationError("INVALID_INSTALLMENT_SEQ",
				fmt.Sprintf("Installment %d: duplicate sequence number %d", i+1, spec.SequenceNumber))
		}
		seen[spec.SequenceNumber] = struct{}{}
		if spec.DaysToPayment < 0 {
			return shared.NewValidationError("INVALID_DAYS_TO_PAYMENT",
				fmt.Sprintf("Installment %d: days to payment cannot be negative", i+1))
		}
		if spec.PercentageOfTotal.IsNegative() {
			return shared.NewValidationError("INVALID_PERCENTAGE",
				fmt.Sprintf("Installment %d: percentage cannot be negative", i+1))
		}
	}
	return nil
}

// Installment is one generated, not yet persisted, portion of a total
type Installment struct {
	SequenceNumber    int
	DueDate           valueobject.Date
	PaymentMethodID   uuid.UUID
	PaymentMethodName string
	Amount            valueobject.Money
}

// GenerateInstallments turns a payment-term template into installments that sum
// exactly to total. Every installment but the last receives floor(total/n); the
// last one absorbs the remainder. Each due date is baseDate plus the entry's days.
//
// A template without entries yields an empty list and a validation error.
func GenerateInstallments(template PaymentTermTemplate, baseDate valueobject.Date, total valueobject.Money) ([]Installment, error) {
	if err := template.Validate(); err != nil {
		return []Installment{}, err
	}
	if baseDate.IsZero() {
		return []Installment{}, shared.NewValidationError("INVALID_BASE_DATE", "Base date is required")
	}
	if total.IsNegative() {
		return []Installment{}, shared.NewValidationError("INVALID_AMOUNT", "Total amount cannot be negative")
	}
	if !total.InRange() {
		return []Installment{}, shared.NewValidationError("AMOUNT_OUT_OF_RANGE", "Total amount exceeds the maximum storable amount")
	}

	amounts, err := service.DistributeExactly(total.Cents(), service.EqualWeights(len(template.Installments)))
	if err != nil {
		return []Installment{}, err
	}

	installments := make([]Installment, len(template.Installments))
	for i, spec := range template.Installments {
		installments[i] = Installment{
			SequenceNumber:  spec.SequenceNumber,
			DueDate:         baseDate.AddDays(spec.DaysToPayment),
			PaymentMethodID: spec.PaymentMethodID,
			Amount:          valueobject.NewMoney(amounts[i]),
		}
	}
	return installments, nil
}

// SumInstallments returns the total of the installment amounts
func SumInstallments(installments []Installment) valueobject.Money {
	total := valueobject.Zero()
	for _, inst := range installments {
		total = total.Add(inst.Amount)
	}
	return total
}
