package finance

import (
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// Provenance records where a monetary document came from.
// It is either Standalone or DerivedFrom; no other implementations exist.
type Provenance interface {
	// IsDerived returns true if the document was generated from a transaction
	IsDerived() bool
	provenance()
}

// Standalone marks a document entered directly by a user
type Standalone struct{}

// IsDerived returns false
func (Standalone) IsDerived() bool { return false }

func (Standalone) provenance() {}

// DerivedFrom marks a document generated when a purchase or sale installment was confirmed
type DerivedFrom struct {
	TransactionID  uuid.UUID `json:"transaction_id"`
	InstallmentSeq int       `json:"installment_seq"`
	Model          string    `json:"model"`
	Series         string    `json:"series"`
	Number         string    `json:"number"`
	CounterpartyID uuid.UUID `json:"counterparty_id"`
}

// IsDerived returns true
func (DerivedFrom) IsDerived() bool { return true }

func (DerivedFrom) provenance() {}

// NewDerivedFrom creates a validated DerivedFrom provenance
func NewDerivedFrom(transactionID uuid.UUID, installmentSeq int, model, series, number string, counterpartyID uuid.UUID) (DerivedFrom, error) {
	if transactionID == uuid.Nil {
		return DerivedFrom{}, shared.NewValidationError("INVALID_TRANSACTION", "Transaction ID cannot be empty")
	}
	if installmentSeq < 1 {
		return DerivedFrom{}, shared.NewValidationError("INVALID_INSTALLMENT_SEQ", "Installment sequence must start at 1")
	}
	if counterpartyID == uuid.Nil {
		return DerivedFrom{}, shared.NewValidationError("INVALID_COUNTERPARTY", "Counterparty ID cannot be empty")
	}
	return DerivedFrom{
		TransactionID:  transactionID,
		InstallmentSeq: installmentSeq,
		Model:          model,
		Series:         series,
		Number:         number,
		CounterpartyID: counterpartyID,
	}, nil
}

// OriginOf returns the derivation details of p and whether p is derived
func OriginOf(p Provenance) (DerivedFrom, bool) {
	d, ok := p.(DerivedFrom)
	return d, ok
}
