package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Provenance discriminator values stored in monetary_documents.provenance_type
const (
	ProvenanceStandalone = "STANDALONE"
	ProvenanceDerived    = "DERIVED"
)

// MonetaryDocumentModel is the persistence model for the MonetaryDocument aggregate root.
// A derived document keeps its (transaction_id, installment_seq) unique among
// documents that are neither cancelled nor removed.
type MonetaryDocumentModel struct {
	TenantAggregateModel
	Direction         finance.Direction      `gorm:"type:varchar(20);not null;index"`
	ProvenanceType    string                 `gorm:"type:varchar(20);not null;default:'STANDALONE'"`
	TransactionID     *uuid.UUID             `gorm:"type:uuid;uniqueIndex:idx_monetary_document_installment,priority:1,where:status <> 'CANCELLED' AND removed = false"`
	InstallmentSeq    *int                   `gorm:"uniqueIndex:idx_monetary_document_installment,priority:2,where:status <> 'CANCELLED' AND removed = false"`
	OriginModel       string                 `gorm:"column:origin_model;type:varchar(20)"`
	OriginSeries      string                 `gorm:"column:origin_series;type:varchar(20)"`
	OriginNumber      string                 `gorm:"column:origin_number;type:varchar(50)"`
	CounterpartyID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	CounterpartyName  string                 `gorm:"type:varchar(200);not null"`
	CounterpartyTaxID string                 `gorm:"type:varchar(50)"`
	DocumentNumber    string                 `gorm:"type:varchar(50);not null;index"`
	Kind              finance.DocumentKind   `gorm:"type:varchar(20);not null"`
	IssueDate         valueobject.Date       `gorm:"type:date;not null"`
	DueDate           valueobject.Date       `gorm:"type:date;not null;index"`
	SettlementDate    valueobject.Date       `gorm:"type:date"`
	OriginalAmount    valueobject.Money      `gorm:"type:decimal(18,2);not null"`
	DiscountAmount    valueobject.Money      `gorm:"type:decimal(18,2);not null;default:0"`
	InterestAmount    valueobject.Money      `gorm:"type:decimal(18,2);not null;default:0"`
	PenaltyAmount     valueobject.Money      `gorm:"type:decimal(18,2);not null;default:0"`
	PaidAmount        valueobject.Money      `gorm:"type:decimal(18,2);not null;default:0"`
	Balance           valueobject.Money      `gorm:"type:decimal(18,2);not null"`
	PaymentMethodID   *uuid.UUID             `gorm:"type:uuid"`
	SettledBy         *uuid.UUID             `gorm:"type:uuid"`
	Status            finance.DocumentStatus `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	Notes             string                 `gorm:"type:text"`
	Removed           bool                   `gorm:"not null;default:false;index"`
	RemovedAt         *time.Time
	CancelledAt       *time.Time
}

// TableName returns the table name for GORM
func (MonetaryDocumentModel) TableName() string {
	return "monetary_documents"
}

// ToDomain converts the persistence model to a domain MonetaryDocument.
func (m *MonetaryDocumentModel) ToDomain() *finance.MonetaryDocument {
	doc := &finance.MonetaryDocument{
		TenantAggregateRoot: m.toAggregate(),
		Direction:           m.Direction,
		Provenance:          m.provenance(),
		CounterpartyID:      m.CounterpartyID,
		CounterpartyName:    m.CounterpartyName,
		CounterpartyTaxID:   m.CounterpartyTaxID,
		DocumentNumber:      m.DocumentNumber,
		Kind:                m.Kind,
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		SettlementDate:      m.SettlementDate,
		OriginalAmount:      m.OriginalAmount,
		DiscountAmount:      m.DiscountAmount,
		InterestAmount:      m.InterestAmount,
		PenaltyAmount:       m.PenaltyAmount,
		PaidAmount:          m.PaidAmount,
		Balance:             m.Balance,
		PaymentMethodID:     m.PaymentMethodID,
		SettledBy:           m.SettledBy,
		Status:              m.Status,
		Notes:               m.Notes,
		Removed:             m.Removed,
		RemovedAt:           m.RemovedAt,
		CancelledAt:         m.CancelledAt,
	}
	return doc
}

func (m *MonetaryDocumentModel) provenance() finance.Provenance {
	if m.ProvenanceType != ProvenanceDerived || m.TransactionID == nil {
		return finance.Standalone{}
	}
	seq := 0
	if m.InstallmentSeq != nil {
		seq = *m.InstallmentSeq
	}
	return finance.DerivedFrom{
		TransactionID:  *m.TransactionID,
		InstallmentSeq: seq,
		Model:          m.OriginModel,
		Series:         m.OriginSeries,
		Number:         m.OriginNumber,
		CounterpartyID: m.CounterpartyID,
	}
}

// FromDomain populates the persistence model from a domain MonetaryDocument.
func (m *MonetaryDocumentModel) FromDomain(d *finance.MonetaryDocument) {
	m.fromAggregate(d.TenantAggregateRoot)
	m.Direction = d.Direction
	m.ProvenanceType = ProvenanceStandalone
	m.TransactionID = nil
	m.InstallmentSeq = nil
	m.OriginModel, m.OriginSeries, m.OriginNumber = "", "", ""
	if origin, ok := finance.OriginOf(d.Provenance); ok {
		txID, seq := origin.TransactionID, origin.InstallmentSeq
		m.ProvenanceType = ProvenanceDerived
		m.TransactionID = &txID
		m.InstallmentSeq = &seq
		m.OriginModel = origin.Model
		m.OriginSeries = origin.Series
		m.OriginNumber = origin.Number
	}
	m.CounterpartyID = d.CounterpartyID
	m.CounterpartyName = d.CounterpartyName
	m.CounterpartyTaxID = d.CounterpartyTaxID
	m.DocumentNumber = d.DocumentNumber
	m.Kind = d.Kind
	m.IssueDate = d.IssueDate
	m.DueDate = d.DueDate
	m.SettlementDate = d.SettlementDate
	m.OriginalAmount = d.OriginalAmount
	m.DiscountAmount = d.DiscountAmount
	m.InterestAmount = d.InterestAmount
	m.PenaltyAmount = d.PenaltyAmount
	m.PaidAmount = d.PaidAmount
	m.Balance = d.Balance
	m.PaymentMethodID = d.PaymentMethodID
	m.SettledBy = d.SettledBy
	m.Status = d.Status
	m.Notes = d.Notes
	m.Removed = d.Removed
	m.RemovedAt = d.RemovedAt
	m.CancelledAt = d.CancelledAt
}

// MonetaryDocumentModelFromDomain creates a new persistence model from a domain MonetaryDocument.
func MonetaryDocumentModelFromDomain(d *finance.MonetaryDocument) *MonetaryDocumentModel {
	m := &MonetaryDocumentModel{}
	m.FromDomain(d)
	return m
}
