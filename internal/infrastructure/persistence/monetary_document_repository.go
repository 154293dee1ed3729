package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/erp/backoffice/internal/infrastructure/persistence/tenant"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMonetaryDocumentRepository implements MonetaryDocumentRepository using GORM
type GormMonetaryDocumentRepository struct {
	db *gorm.DB
}

// NewGormMonetaryDocumentRepository creates a new GormMonetaryDocumentRepository
func NewGormMonetaryDocumentRepository(db *gorm.DB) *GormMonetaryDocumentRepository {
	return &GormMonetaryDocumentRepository{db: db}
}

var _ finance.MonetaryDocumentRepository = (*GormMonetaryDocumentRepository)(nil)

func documentNotFound() error {
	return shared.NewNotFoundError("DOCUMENT_NOT_FOUND", "Monetary document not found")
}

// FindByIDForTenant finds a document by ID for a tenant, including removed ones
func (r *GormMonetaryDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.MonetaryDocument, error) {
	var model models.MonetaryDocumentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, documentNotFound()
		}
		return nil, fmt.Errorf("failed to find monetary document: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds documents for a tenant with filtering and pagination
func (r *GormMonetaryDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.DocumentFilter) ([]finance.MonetaryDocument, error) {
	var rows []models.MonetaryDocumentModel
	query := r.db.WithContext(ctx).Model(&models.MonetaryDocumentModel{}).
		Scopes(tenant.Scope(tenantID))
	query = r.applyFilter(query, filter)

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list monetary documents: %w", err)
	}
	return toDomainDocuments(rows), nil
}

// CountForTenant counts documents for a tenant with filtering
func (r *GormMonetaryDocumentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.DocumentFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.MonetaryDocumentModel{}).
		Scopes(tenant.Scope(tenantID))
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count monetary documents: %w", err)
	}
	return count, nil
}

// FindByTransaction finds every document derived from a transaction, ordered by installment
func (r *GormMonetaryDocumentRepository) FindByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]finance.MonetaryDocument, error) {
	var rows []models.MonetaryDocumentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("transaction_id = ?", transactionID).
		Order("installment_seq ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find transaction documents: %w", err)
	}
	return toDomainDocuments(rows), nil
}

// Create inserts a new document
func (r *GormMonetaryDocumentRepository) Create(ctx context.Context, doc *finance.MonetaryDocument) error {
	if err := r.db.WithContext(ctx).Create(models.MonetaryDocumentModelFromDomain(doc)).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

// CreateBatch inserts documents in a single transaction
func (r *GormMonetaryDocumentRepository) CreateBatch(ctx context.Context, docs []*finance.MonetaryDocument) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]*models.MonetaryDocumentModel, len(docs))
	for i, doc := range docs {
		rows[i] = models.MonetaryDocumentModelFromDomain(doc)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rows).Error
	})
	if err != nil {
		return translateWriteError(err)
	}
	return nil
}

// UpdateWithLock locks the row with SELECT ... FOR UPDATE, applies mutate and
// writes the document back before the lock is released.
func (r *GormMonetaryDocumentRepository) UpdateWithLock(ctx context.Context, tenantID, id uuid.UUID, mutate finance.MutateFunc) (*finance.MonetaryDocument, error) {
	var doc *finance.MonetaryDocument
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.MonetaryDocumentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(tenant.Scope(tenantID)).
			Where("id = ?", id).
			First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return documentNotFound()
			}
			return fmt.Errorf("failed to lock monetary document: %w", err)
		}

		telemetry.AddEvent(ctx, "row_locked", telemetry.AttrDocumentID.String(id.String()))
		doc = model.ToDomain()
		previous := doc.Version
		if err := mutate(doc); err != nil {
			return err
		}
		return saveLocked(tx, doc, previous)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateByTransactionWithLock locks every non-removed document derived from
// the transaction and writes the ones mutate changed.
func (r *GormMonetaryDocumentRepository) UpdateByTransactionWithLock(ctx context.Context, tenantID, transactionID uuid.UUID, mutate finance.MutateManyFunc) ([]*finance.MonetaryDocument, error) {
	var docs []*finance.MonetaryDocument
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.MonetaryDocumentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(tenant.Scope(tenantID)).
			Where("transaction_id = ? AND removed = ?", transactionID, false).
			Order("installment_seq ASC").
			Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to lock transaction documents: %w", err)
		}
		telemetry.AddEvent(ctx, "rows_locked",
			telemetry.AttrTransactionID.String(transactionID.String()),
			telemetry.AttrLockedRows.Int(len(rows)))

		docs = make([]*finance.MonetaryDocument, len(rows))
		versions := make([]int, len(rows))
		for i := range rows {
			docs[i] = rows[i].ToDomain()
			versions[i] = docs[i].Version
		}
		if err := mutate(docs); err != nil {
			return err
		}
		for i, doc := range docs {
			if doc.Version == versions[i] {
				continue
			}
			if err := saveLocked(tx, doc, versions[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// saveLocked writes the mutable columns of doc, guarded by the version it was read with
func saveLocked(tx *gorm.DB, doc *finance.MonetaryDocument, expectedVersion int) error {
	m := models.MonetaryDocumentModelFromDomain(doc)
	result := tx.Model(&models.MonetaryDocumentModel{}).
		Where("id = ? AND version = ?", doc.ID, expectedVersion).
		Updates(map[string]any{
			"document_number":   m.DocumentNumber,
			"kind":              m.Kind,
			"issue_date":        m.IssueDate,
			"due_date":          m.DueDate,
			"settlement_date":   m.SettlementDate,
			"original_amount":   m.OriginalAmount,
			"discount_amount":   m.DiscountAmount,
			"interest_amount":   m.InterestAmount,
			"penalty_amount":    m.PenaltyAmount,
			"paid_amount":       m.PaidAmount,
			"balance":           m.Balance,
			"payment_method_id": m.PaymentMethodID,
			"settled_by":        m.SettledBy,
			"status":            m.Status,
			"notes":             m.Notes,
			"removed":           m.Removed,
			"removed_at":        m.RemovedAt,
			"cancelled_at":      m.CancelledAt,
			"version":           m.Version,
			"updated_at":        m.UpdatedAt,
		})
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("OPTIMISTIC_LOCK_FAILED", "Monetary document was modified by another transaction")
	}
	return nil
}

// MarkOverdue flips every qualifying document in a single conditional UPDATE,
// so a second run on the same day affects no rows.
func (r *GormMonetaryDocumentRepository) MarkOverdue(ctx context.Context, today valueobject.Date) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.MonetaryDocumentModel{}).
		Where("status = ? AND removed = ? AND due_date < ?", finance.DocumentStatusOpen, false, today).
		Updates(map[string]any{
			"status":     finance.DocumentStatusOverdue,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue documents: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Summarize returns per-status counts and outstanding balances of a tenant's active documents
func (r *GormMonetaryDocumentRepository) Summarize(ctx context.Context, tenantID uuid.UUID, direction *finance.Direction) (finance.DocumentSummary, error) {
	var rows []struct {
		Status finance.DocumentStatus
		Count  int64
		Total  valueobject.Money
	}
	query := r.db.WithContext(ctx).Model(&models.MonetaryDocumentModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(balance), 0) AS total").
		Scopes(tenant.Scope(tenantID)).
		Where("removed = ?", false)
	if direction != nil {
		query = query.Where("direction = ?", *direction)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return finance.DocumentSummary{}, fmt.Errorf("failed to summarize monetary documents: %w", err)
	}

	var summary finance.DocumentSummary
	for _, row := range rows {
		switch row.Status {
		case finance.DocumentStatusOpen:
			summary.OpenCount, summary.OpenBalance = row.Count, row.Total
		case finance.DocumentStatusOverdue:
			summary.OverdueCount, summary.OverdueBalance = row.Count, row.Total
		case finance.DocumentStatusSettled:
			summary.SettledCount = row.Count
		case finance.DocumentStatusCancelled:
			summary.CancelledCount = row.Count
		}
	}
	return summary, nil
}

// applyFilter applies filter options including ordering and pagination
func (r *GormMonetaryDocumentRepository) applyFilter(query *gorm.DB, filter finance.DocumentFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	f := filter.Normalized()
	return query.Order(DocumentSort.OrderBy(f.OrderBy, f.OrderDir)).
		Offset(f.Offset()).
		Limit(f.PageSize)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormMonetaryDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter finance.DocumentFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(document_number) LIKE ? OR LOWER(counterparty_name) LIKE ?", pattern, pattern)
	}
	if !filter.IncludeRemoved {
		query = query.Where("removed = ?", false)
	}
	if filter.Direction != nil {
		query = query.Where("direction = ?", *filter.Direction)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CounterpartyID != nil {
		query = query.Where("counterparty_id = ?", *filter.CounterpartyID)
	}
	if filter.TransactionID != nil {
		query = query.Where("transaction_id = ?", *filter.TransactionID)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	return query
}

// translateWriteError maps unique violations to a conflict; TranslateError must be enabled on the connection
func translateWriteError(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewConflictError("DUPLICATE_INSTALLMENT", "A document for this installment already exists")
	}
	return fmt.Errorf("failed to write monetary document: %w", err)
}

func toDomainDocuments(rows []models.MonetaryDocumentModel) []finance.MonetaryDocument {
	docs := make([]finance.MonetaryDocument, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs
}
