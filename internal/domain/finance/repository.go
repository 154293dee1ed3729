package finance

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DocumentFilter defines filtering options for monetary document queries
type DocumentFilter struct {
	shared.Filter
	Direction      *Direction      // Filter by payable / receivable
	Status         *DocumentStatus // Filter by status
	CounterpartyID *uuid.UUID      // Filter by counterparty
	TransactionID  *uuid.UUID      // Filter by originating transaction
	DueFrom        *valueobject.Date
	DueTo          *valueobject.Date
	IncludeRemoved bool // Include soft-deleted documents
}

// DocumentSummary aggregates outstanding amounts for a tenant
type DocumentSummary struct {
	OpenCount      int64
	OpenBalance    valueobject.Money
	OverdueCount   int64
	OverdueBalance valueobject.Money
	SettledCount   int64
	CancelledCount int64
}

// MutateFunc applies a state transition to a locked document
type MutateFunc func(doc *MonetaryDocument) error

// MutateManyFunc applies a state transition to a set of locked documents
type MutateManyFunc func(docs []*MonetaryDocument) error

// MonetaryDocumentRepository defines the interface for monetary document persistence
type MonetaryDocumentRepository interface {
	// FindByIDForTenant finds a document by ID for a specific tenant, including removed ones
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*MonetaryDocument, error)

	// FindAllForTenant finds documents for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) ([]MonetaryDocument, error)

	// CountForTenant counts documents for a tenant with filtering
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) (int64, error)

	// FindByTransaction finds the documents derived from a transaction
	FindByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]MonetaryDocument, error)

	// Create inserts a new document
	Create(ctx context.Context, doc *MonetaryDocument) error

	// CreateBatch inserts documents in a single transaction; either all or none are stored
	CreateBatch(ctx context.Context, docs []*MonetaryDocument) error

	// UpdateWithLock loads the document under a row lock, applies mutate and
	// writes the result in the same transaction. Nothing is written when mutate fails.
	UpdateWithLock(ctx context.Context, tenantID, id uuid.UUID, mutate MutateFunc) (*MonetaryDocument, error)

	// UpdateByTransactionWithLock locks every active document derived from a
	// transaction, applies mutate and writes all of them in one transaction
	UpdateByTransactionWithLock(ctx context.Context, tenantID, transactionID uuid.UUID, mutate MutateManyFunc) ([]*MonetaryDocument, error)

	// MarkOverdue moves every active OPEN document due before today to OVERDUE
	// across all tenants and returns the number of affected documents
	MarkOverdue(ctx context.Context, today valueobject.Date) (int64, error)

	// Summarize returns outstanding totals for a tenant
	Summarize(ctx context.Context, tenantID uuid.UUID, direction *Direction) (DocumentSummary, error)
}
