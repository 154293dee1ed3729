package finance

import (
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Event type names
const (
	EventTypeDocumentCreated       = "MonetaryDocumentCreated"
	EventTypeDocumentSettled       = "MonetaryDocumentSettled"
	EventTypeDocumentCancelled     = "MonetaryDocumentCancelled"
	EventTypeDocumentRemoved       = "MonetaryDocumentRemoved"
	EventTypeDocumentUpdated       = "MonetaryDocumentUpdated"
	EventTypeDocumentMarkedOverdue = "MonetaryDocumentMarkedOverdue"
)

const aggregateTypeDocument = "MonetaryDocument"

// DocumentCreatedEvent is raised when a new monetary document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID         `json:"document_id"`
	DocumentNumber string            `json:"document_number"`
	Direction      Direction         `json:"direction"`
	CounterpartyID uuid.UUID         `json:"counterparty_id"`
	Derived        bool              `json:"derived"`
	OriginalAmount valueobject.Money `json:"original_amount"`
	Balance        valueobject.Money `json:"balance"`
	DueDate        valueobject.Date  `json:"due_date"`
}

// EventType returns the event type name
func (e *DocumentCreatedEvent) EventType() string {
	return EventTypeDocumentCreated
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(d *MonetaryDocument) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, aggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Direction:       d.Direction,
		CounterpartyID:  d.CounterpartyID,
		Derived:         d.IsDerived(),
		OriginalAmount:  d.OriginalAmount,
		Balance:         d.Balance,
		DueDate:         d.DueDate,
	}
}

// DocumentSettledEvent is raised when a document is fully settled
type DocumentSettledEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID         `json:"document_id"`
	DocumentNumber string            `json:"document_number"`
	Direction      Direction         `json:"direction"`
	PreviousStatus DocumentStatus    `json:"previous_status"`
	PaidAmount     valueobject.Money `json:"paid_amount"`
	SettlementDate valueobject.Date  `json:"settlement_date"`
	SettledBy      *uuid.UUID        `json:"settled_by,omitempty"`
}

// EventType returns the event type name
func (e *DocumentSettledEvent) EventType() string {
	return EventTypeDocumentSettled
}

// NewDocumentSettledEvent creates a new DocumentSettledEvent
func NewDocumentSettledEvent(d *MonetaryDocument, previous DocumentStatus) *DocumentSettledEvent {
	return &DocumentSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentSettled, aggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Direction:       d.Direction,
		PreviousStatus:  previous,
		PaidAmount:      d.PaidAmount,
		SettlementDate:  d.SettlementDate,
		SettledBy:       d.SettledBy,
	}
}

// DocumentCancelledEvent is raised when a document is cancelled
type DocumentCancelledEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID      `json:"document_id"`
	DocumentNumber string         `json:"document_number"`
	Direction      Direction      `json:"direction"`
	PreviousStatus DocumentStatus `json:"previous_status"`
	Derived        bool           `json:"derived"`
}

// EventType returns the event type name
func (e *DocumentCancelledEvent) EventType() string {
	return EventTypeDocumentCancelled
}

// NewDocumentCancelledEvent creates a new DocumentCancelledEvent
func NewDocumentCancelledEvent(d *MonetaryDocument, previous DocumentStatus) *DocumentCancelledEvent {
	return &DocumentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCancelled, aggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Direction:       d.Direction,
		PreviousStatus:  previous,
		Derived:         d.IsDerived(),
	}
}

// DocumentRemovedEvent is raised when a document is soft-deleted
type DocumentRemovedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID      `json:"document_id"`
	DocumentNumber string         `json:"document_number"`
	Status         DocumentStatus `json:"status"`
}

// EventType returns the event type name
func (e *DocumentRemovedEvent) EventType() string {
	return EventTypeDocumentRemoved
}

// NewDocumentRemovedEvent creates a new DocumentRemovedEvent
func NewDocumentRemovedEvent(d *MonetaryDocument) *DocumentRemovedEvent {
	return &DocumentRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentRemoved, aggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Status:          d.Status,
	}
}

// DocumentUpdatedEvent is raised when editable fields of a document change
type DocumentUpdatedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID         `json:"document_id"`
	Balance    valueobject.Money `json:"balance"`
	DueDate    valueobject.Date  `json:"due_date"`
}

// EventType returns the event type name
func (e *DocumentUpdatedEvent) EventType() string {
	return EventTypeDocumentUpdated
}

// NewDocumentUpdatedEvent creates a new DocumentUpdatedEvent
func NewDocumentUpdatedEvent(d *MonetaryDocument) *DocumentUpdatedEvent {
	return &DocumentUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentUpdated, aggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:      d.ID,
		Balance:         d.Balance,
		DueDate:         d.DueDate,
	}
}

// DocumentMarkedOverdueEvent is raised when an open document passes its due date
type DocumentMarkedOverdueEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID         `json:"document_id"`
	DueDate    valueobject.Date  `json:"due_date"`
	Balance    valueobject.Money `json:"balance"`
}

// EventType returns the event type name
func (e *DocumentMarkedOverdueEvent) EventType() string {
	return EventTypeDocumentMarkedOverdue
}

// NewDocumentMarkedOverdueEvent creates a new DocumentMarkedOverdueEvent
func NewDocumentMarkedOverdueEvent(d *MonetaryDocument) *DocumentMarkedOverdueEvent {
	return &DocumentMarkedOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentMarkedOverdue, aggregateTypeDocument, d.ID, d.TenantID),
		DocumentID:      d.ID,
		DueDate:         d.DueDate,
		Balance:         d.Balance,
	}
}
