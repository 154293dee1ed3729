package finance

import (
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDocumentRequest is the input for creating a standalone document
type CreateDocumentRequest struct {
	Direction       string
	CounterpartyID  uuid.UUID
	DocumentNumber  string
	Kind            string
	IssueDate       valueobject.Date
	DueDate         valueobject.Date
	OriginalAmount  valueobject.Money
	DiscountAmount  valueobject.Money
	InterestAmount  valueobject.Money
	PenaltyAmount   valueobject.Money
	PaymentMethodID *uuid.UUID
	Notes           string
	CreatedBy       *uuid.UUID
}

// SettleDocumentRequest is the input for a full settlement.
// Nil overrides keep the amounts stored on the document.
type SettleDocumentRequest struct {
	PaidAmount      valueobject.Money
	DiscountAmount  *valueobject.Money
	InterestAmount  *valueobject.Money
	PenaltyAmount   *valueobject.Money
	SettlementDate  valueobject.Date
	PaymentMethodID *uuid.UUID
	SettledBy       *uuid.UUID
}

// UpdateDocumentRequest carries the fields to change; nil fields are left unchanged
type UpdateDocumentRequest struct {
	DocumentNumber  *string
	Kind            *string
	IssueDate       *valueobject.Date
	DueDate         *valueobject.Date
	OriginalAmount  *valueobject.Money
	DiscountAmount  *valueobject.Money
	InterestAmount  *valueobject.Money
	PenaltyAmount   *valueobject.Money
	PaidAmount      *valueobject.Money
	PaymentMethodID *uuid.UUID
	Notes           *string
}

// ListDocumentsFilter defines filtering options for document list queries
type ListDocumentsFilter struct {
	Search         string
	Direction      string
	Status         string
	CounterpartyID *uuid.UUID
	TransactionID  *uuid.UUID
	DueFrom        *valueobject.Date
	DueTo          *valueobject.Date
	IncludeRemoved bool
	Page           int
	PageSize       int
	OrderBy        string
	OrderDir       string
}

// ProvenanceResponse describes where a document came from
type ProvenanceResponse struct {
	Type           string     `json:"type"`
	TransactionID  *uuid.UUID `json:"transaction_id,omitempty"`
	InstallmentSeq int        `json:"installment_seq,omitempty"`
	Model          string     `json:"model,omitempty"`
	Series         string     `json:"series,omitempty"`
	Number         string     `json:"number,omitempty"`
}

// Provenance type names in responses
const (
	ProvenanceStandalone = "STANDALONE"
	ProvenanceDerived    = "DERIVED"
)

// DocumentResponse represents a monetary document in API responses.
// Amounts are integer cents; BalanceDecimal repeats the balance in currency units.
type DocumentResponse struct {
	ID                uuid.UUID          `json:"id"`
	TenantID          uuid.UUID          `json:"tenant_id"`
	Direction         string             `json:"direction"`
	Provenance        ProvenanceResponse `json:"provenance"`
	CounterpartyID    uuid.UUID          `json:"counterparty_id"`
	CounterpartyName  string             `json:"counterparty_name"`
	CounterpartyTaxID string             `json:"counterparty_tax_id,omitempty"`
	DocumentNumber    string             `json:"document_number"`
	Kind              string             `json:"kind"`
	IssueDate         valueobject.Date   `json:"issue_date"`
	DueDate           valueobject.Date   `json:"due_date"`
	SettlementDate    valueobject.Date   `json:"settlement_date"`
	OriginalAmount    valueobject.Money  `json:"original_amount"`
	DiscountAmount    valueobject.Money  `json:"discount_amount"`
	InterestAmount    valueobject.Money  `json:"interest_amount"`
	PenaltyAmount     valueobject.Money  `json:"penalty_amount"`
	PaidAmount        valueobject.Money  `json:"paid_amount"`
	Balance           valueobject.Money  `json:"balance"`
	BalanceDecimal    decimal.Decimal    `json:"balance_decimal"`
	PaymentMethodID   *uuid.UUID         `json:"payment_method_id,omitempty"`
	PaymentMethodName string             `json:"payment_method_name,omitempty"`
	SettledBy         *uuid.UUID         `json:"settled_by,omitempty"`
	SettledByName     string             `json:"settled_by_name,omitempty"`
	CreatedBy         *uuid.UUID         `json:"created_by,omitempty"`
	CreatedByName     string             `json:"created_by_name,omitempty"`
	Status            string             `json:"status"`
	Notes             string             `json:"notes,omitempty"`
	Removed           bool               `json:"removed"`
	RemovedAt         *time.Time         `json:"removed_at,omitempty"`
	CancelledAt       *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	Version           int                `json:"version"`
}

// SummaryResponse aggregates outstanding documents
type SummaryResponse struct {
	Direction      string            `json:"direction,omitempty"`
	OpenCount      int64             `json:"open_count"`
	OpenBalance    valueobject.Money `json:"open_balance"`
	OverdueCount   int64             `json:"overdue_count"`
	OverdueBalance valueobject.Money `json:"overdue_balance"`
	TotalBalance   valueobject.Money `json:"total_balance"`
	SettledCount   int64             `json:"settled_count"`
	CancelledCount int64             `json:"cancelled_count"`
}

// InstallmentSpecInput is one entry of a payment-term template
type InstallmentSpecInput struct {
	SequenceNumber    int
	DaysToPayment     int
	PercentageOfTotal decimal.Decimal
	PaymentMethodID   uuid.UUID
}

// PreviewInstallmentsRequest asks for a schedule without persisting it
type PreviewInstallmentsRequest struct {
	BaseDate     valueobject.Date
	TotalAmount  valueobject.Money
	Installments []InstallmentSpecInput
}

// InstallmentResponse is one generated installment
type InstallmentResponse struct {
	SequenceNumber    int               `json:"sequence_number"`
	DueDate           valueobject.Date  `json:"due_date"`
	PaymentMethodID   uuid.UUID         `json:"payment_method_id"`
	PaymentMethodName string            `json:"payment_method_name"`
	Amount            valueobject.Money `json:"amount"`
}

// ScheduleResponse is a generated installment schedule
type ScheduleResponse struct {
	TotalAmount  valueobject.Money     `json:"total_amount"`
	Installments []InstallmentResponse `json:"installments"`
}

// ConfirmedInstallment is one installment to persist as a derived document
type ConfirmedInstallment struct {
	SequenceNumber  int
	DueDate         valueobject.Date
	Amount          valueobject.Money
	PaymentMethodID *uuid.UUID
}

// ConfirmInstallmentsRequest turns a schedule into derived documents
type ConfirmInstallmentsRequest struct {
	TransactionID  uuid.UUID
	Direction      string
	CounterpartyID uuid.UUID
	Model          string
	Series         string
	Number         string
	Kind           string
	IssueDate      valueobject.Date
	Installments   []ConfirmedInstallment
	CreatedBy      *uuid.UUID
}

// SweepResponse reports one overdue sweep run
type SweepResponse struct {
	Today  valueobject.Date `json:"today"`
	Marked int64            `json:"marked"`
}

// ToDocumentResponse converts a domain document to its response shape
func ToDocumentResponse(d *finance.MonetaryDocument) *DocumentResponse {
	resp := &DocumentResponse{
		ID:                d.ID,
		TenantID:          d.TenantID,
		Direction:         string(d.Direction),
		Provenance:        toProvenanceResponse(d.Provenance),
		CounterpartyID:    d.CounterpartyID,
		CounterpartyName:  d.CounterpartyName,
		CounterpartyTaxID: d.CounterpartyTaxID,
		DocumentNumber:    d.DocumentNumber,
		Kind:              string(d.Kind),
		IssueDate:         d.IssueDate,
		DueDate:           d.DueDate,
		SettlementDate:    d.SettlementDate,
		OriginalAmount:    d.OriginalAmount,
		DiscountAmount:    d.DiscountAmount,
		InterestAmount:    d.InterestAmount,
		PenaltyAmount:     d.PenaltyAmount,
		PaidAmount:        d.PaidAmount,
		Balance:           d.Balance,
		BalanceDecimal:    d.Balance.Decimal(),
		PaymentMethodID:   d.PaymentMethodID,
		SettledBy:         d.SettledBy,
		CreatedBy:         d.CreatedBy,
		Status:            string(d.Status),
		Notes:             d.Notes,
		Removed:           d.Removed,
		RemovedAt:         d.RemovedAt,
		CancelledAt:       d.CancelledAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		Version:           d.Version,
	}
	return resp
}

func toDocumentResponses(docs []finance.MonetaryDocument) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = *ToDocumentResponse(&docs[i])
	}
	return out
}

func toProvenanceResponse(p finance.Provenance) ProvenanceResponse {
	origin, ok := finance.OriginOf(p)
	if !ok {
		return ProvenanceResponse{Type: ProvenanceStandalone}
	}
	txID := origin.TransactionID
	return ProvenanceResponse{
		Type:           ProvenanceDerived,
		TransactionID:  &txID,
		InstallmentSeq: origin.InstallmentSeq,
		Model:          origin.Model,
		Series:         origin.Series,
		Number:         origin.Number,
	}
}

func toSummaryResponse(direction string, s finance.DocumentSummary) *SummaryResponse {
	return &SummaryResponse{
		Direction:      direction,
		OpenCount:      s.OpenCount,
		OpenBalance:    s.OpenBalance,
		OverdueCount:   s.OverdueCount,
		OverdueBalance: s.OverdueBalance,
		TotalBalance:   s.OpenBalance.Add(s.OverdueBalance),
		SettledCount:   s.SettledCount,
		CancelledCount: s.CancelledCount,
	}
}

func parseDirection(raw string) (finance.Direction, error) {
	d := finance.Direction(raw)
	if !d.IsValid() {
		return "", shared.NewValidationError("INVALID_DIRECTION", "Direction must be PAYABLE or RECEIVABLE")
	}
	return d, nil
}

func parseKind(raw string) (finance.DocumentKind, error) {
	k := finance.DocumentKind(raw)
	if !k.IsValid() {
		return "", shared.NewValidationError("INVALID_DOCUMENT_KIND", "Document kind must be INVOICE, DUPLICATE, BILL or FISCAL_NOTE")
	}
	return k, nil
}

// toDomainFilter validates the list filter. PARTIAL is not a document status.
func (f ListDocumentsFilter) toDomainFilter() (finance.DocumentFilter, error) {
	df := finance.DocumentFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		}.Normalized(),
		CounterpartyID: f.CounterpartyID,
		TransactionID:  f.TransactionID,
		DueFrom:        f.DueFrom,
		DueTo:          f.DueTo,
		IncludeRemoved: f.IncludeRemoved,
	}
	if f.Direction != "" {
		d, err := parseDirection(f.Direction)
		if err != nil {
			return df, err
		}
		df.Direction = &d
	}
	if f.Status != "" {
		s := finance.DocumentStatus(f.Status)
		if !s.IsValid() {
			return df, shared.NewValidationError("INVALID_STATUS", "Status must be OPEN, OVERDUE, SETTLED or CANCELLED")
		}
		df.Status = &s
	}
	if f.DueFrom != nil && f.DueTo != nil && f.DueTo.Before(*f.DueFrom) {
		return df, shared.NewValidationError("INVALID_DATE_RANGE", "due_to cannot be before due_from")
	}
	return df, nil
}
