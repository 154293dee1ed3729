package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/finance/acl"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DocumentOperations is the use-case surface for monetary documents.
// DocumentService implements it; EnrichingDocumentService decorates it.
type DocumentOperations interface {
	Create(ctx context.Context, tenantID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ListDocumentsFilter) ([]DocumentResponse, int64, error)
	ListOverdue(ctx context.Context, tenantID uuid.UUID, filter ListDocumentsFilter) ([]DocumentResponse, int64, error)
	Summary(ctx context.Context, tenantID uuid.UUID, direction string) (*SummaryResponse, error)
	Settle(ctx context.Context, tenantID, id uuid.UUID, req SettleDocumentRequest) (*DocumentResponse, error)
	Cancel(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error)
	Remove(ctx context.Context, tenantID, id uuid.UUID) error
	Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error)
}

// DocumentService runs the document lifecycle against the repository
type DocumentService struct {
	repo           finance.MonetaryDocumentRepository
	counterparties acl.CounterpartyQueryService
	publisher      shared.EventPublisher
	metrics        *telemetry.FinanceMetrics
	logger         *zap.Logger
}

// DocumentServiceOption configures a DocumentService
type DocumentServiceOption func(*DocumentService)

// WithEventPublisher publishes the aggregate's events after each committed mutation
func WithEventPublisher(p shared.EventPublisher) DocumentServiceOption {
	return func(s *DocumentService) { s.publisher = p }
}

// WithFinanceMetrics records lifecycle metrics
func WithFinanceMetrics(m *telemetry.FinanceMetrics) DocumentServiceOption {
	return func(s *DocumentService) { s.metrics = m }
}

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l *zap.Logger) DocumentServiceOption {
	return func(s *DocumentService) { s.logger = l }
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	repo finance.MonetaryDocumentRepository,
	counterparties acl.CounterpartyQueryService,
	opts ...DocumentServiceOption,
) *DocumentService {
	s := &DocumentService{
		repo:           repo,
		counterparties: counterparties,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the counterparty and stores an OPEN standalone document
func (s *DocumentService) Create(ctx context.Context, tenantID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "monetary_document", "create",
		telemetry.AttrTenantID.String(tenantID.String()))
	defer span.End()

	direction, err := parseDirection(req.Direction)
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}
	counterparty, err := s.resolveCounterparty(ctx, tenantID, direction, req.CounterpartyID)
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	doc, err := finance.NewMonetaryDocument(tenantID, finance.NewDocumentParams{
		Direction:       direction,
		Provenance:      finance.Standalone{},
		Counterparty:    counterparty,
		DocumentNumber:  req.DocumentNumber,
		Kind:            kind,
		IssueDate:       req.IssueDate,
		DueDate:         req.DueDate,
		OriginalAmount:  req.OriginalAmount,
		DiscountAmount:  req.DiscountAmount,
		InterestAmount:  req.InterestAmount,
		PenaltyAmount:   req.PenaltyAmount,
		PaymentMethodID: req.PaymentMethodID,
		Notes:           req.Notes,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	s.afterCommit(ctx, doc)
	s.metrics.RecordCreated(ctx, tenantID, string(direction), 1)
	s.log(ctx).Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("direction", string(direction)),
		zap.Int64("balance_cents", doc.Balance.Cents()),
	)
	telemetry.SetAttributes(span, telemetry.AttrDocumentID.String(doc.ID.String()))
	return ToDocumentResponse(doc), nil
}

// Get returns a document, including soft-deleted ones
func (s *DocumentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, asApplicationError("get", err)
	}
	if doc == nil {
		return nil, documentNotFound()
	}
	return ToDocumentResponse(doc), nil
}

// List lists documents with filtering and pagination
func (s *DocumentService) List(ctx context.Context, tenantID uuid.UUID, filter ListDocumentsFilter) ([]DocumentResponse, int64, error) {
	domainFilter, err := filter.toDomainFilter()
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, tenantID, domainFilter)
}

// ListOverdue lists OVERDUE documents; any status in the filter is replaced
func (s *DocumentService) ListOverdue(ctx context.Context, tenantID uuid.UUID, filter ListDocumentsFilter) ([]DocumentResponse, int64, error) {
	filter.Status = ""
	domainFilter, err := filter.toDomainFilter()
	if err != nil {
		return nil, 0, err
	}
	overdue := finance.DocumentStatusOverdue
	domainFilter.Status = &overdue
	domainFilter.IncludeRemoved = false
	if filter.OrderBy == "" {
		domainFilter.OrderBy = "due_date"
		domainFilter.OrderDir = "asc"
	}
	return s.list(ctx, tenantID, domainFilter)
}

func (s *DocumentService) list(ctx context.Context, tenantID uuid.UUID, filter finance.DocumentFilter) ([]DocumentResponse, int64, error) {
	docs, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, asApplicationError("list", err)
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, asApplicationError("count", err)
	}
	return toDocumentResponses(docs), total, nil
}

// Summary returns outstanding counts and balances, optionally for one direction
func (s *DocumentService) Summary(ctx context.Context, tenantID uuid.UUID, direction string) (*SummaryResponse, error) {
	var dir *finance.Direction
	if direction != "" {
		d, err := parseDirection(direction)
		if err != nil {
			return nil, err
		}
		dir = &d
	}
	summary, err := s.repo.Summarize(ctx, tenantID, dir)
	if err != nil {
		return nil, asApplicationError("summarize", err)
	}
	return toSummaryResponse(direction, summary), nil
}

// Settle fully settles a document under a row lock
func (s *DocumentService) Settle(ctx context.Context, tenantID, id uuid.UUID, req SettleDocumentRequest) (*DocumentResponse, error) {
	ctx, span := s.startLifecycleSpan(ctx, "settle", tenantID, id)
	defer span.End()

	doc, err := s.repo.UpdateWithLock(ctx, tenantID, id, func(doc *finance.MonetaryDocument) error {
		return doc.Settle(finance.Settlement{
			PaidAmount:      req.PaidAmount,
			Discount:        req.DiscountAmount,
			Interest:        req.InterestAmount,
			Penalty:         req.PenaltyAmount,
			SettlementDate:  req.SettlementDate,
			PaymentMethodID: req.PaymentMethodID,
			SettledBy:       req.SettledBy,
		})
	})
	if err != nil {
		return nil, s.fail(ctx, span, "settle", err)
	}

	s.afterCommit(ctx, doc)
	s.metrics.RecordSettled(ctx, tenantID, string(doc.Direction))
	s.log(ctx).Info("document settled",
		zap.String("document_id", doc.ID.String()),
		zap.Int64("paid_cents", doc.PaidAmount.Cents()),
		zap.String("settlement_date", doc.SettlementDate.String()),
	)
	telemetry.SetAttributes(span, telemetry.AttrAmountCents.Int64(doc.PaidAmount.Cents()))
	return ToDocumentResponse(doc), nil
}

// Cancel cancels a standalone document under a row lock
func (s *DocumentService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	ctx, span := s.startLifecycleSpan(ctx, "cancel", tenantID, id)
	defer span.End()

	doc, err := s.repo.UpdateWithLock(ctx, tenantID, id, func(doc *finance.MonetaryDocument) error {
		return doc.Cancel()
	})
	if err != nil {
		return nil, s.fail(ctx, span, "cancel", err)
	}

	s.afterCommit(ctx, doc)
	s.metrics.RecordCancelled(ctx, tenantID, string(doc.Direction), 1)
	s.log(ctx).Info("document cancelled", zap.String("document_id", doc.ID.String()))
	return ToDocumentResponse(doc), nil
}

// Remove soft-deletes a document under a row lock
func (s *DocumentService) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	ctx, span := s.startLifecycleSpan(ctx, "remove", tenantID, id)
	defer span.End()

	doc, err := s.repo.UpdateWithLock(ctx, tenantID, id, func(doc *finance.MonetaryDocument) error {
		return doc.Remove()
	})
	if err != nil {
		return s.fail(ctx, span, "remove", err)
	}

	s.afterCommit(ctx, doc)
	s.metrics.RecordRemoved(ctx, tenantID, string(doc.Direction))
	s.log(ctx).Info("document removed", zap.String("document_id", doc.ID.String()))
	return nil
}

// Update edits an OPEN or OVERDUE document under a row lock
func (s *DocumentService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	ctx, span := s.startLifecycleSpan(ctx, "update", tenantID, id)
	defer span.End()

	update := finance.DocumentUpdate{
		DocumentNumber:  req.DocumentNumber,
		IssueDate:       req.IssueDate,
		DueDate:         req.DueDate,
		OriginalAmount:  req.OriginalAmount,
		DiscountAmount:  req.DiscountAmount,
		InterestAmount:  req.InterestAmount,
		PenaltyAmount:   req.PenaltyAmount,
		PaidAmount:      req.PaidAmount,
		PaymentMethodID: req.PaymentMethodID,
		Notes:           req.Notes,
	}
	if req.Kind != nil {
		kind, err := parseKind(*req.Kind)
		if err != nil {
			return nil, s.fail(ctx, span, "update", err)
		}
		update.Kind = &kind
	}

	doc, err := s.repo.UpdateWithLock(ctx, tenantID, id, func(doc *finance.MonetaryDocument) error {
		return doc.Update(update)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}

	s.afterCommit(ctx, doc)
	s.log(ctx).Info("document updated",
		zap.String("document_id", doc.ID.String()),
		zap.Int64("balance_cents", doc.Balance.Cents()),
	)
	return ToDocumentResponse(doc), nil
}

func (s *DocumentService) resolveCounterparty(ctx context.Context, tenantID uuid.UUID, direction finance.Direction, id uuid.UUID) (acl.CounterpartyReference, error) {
	if id == uuid.Nil {
		return acl.CounterpartyReference{}, shared.NewValidationError("INVALID_COUNTERPARTY", "Counterparty is required")
	}
	role := direction.CounterpartyRole()
	exists, err := s.counterparties.CounterpartyExists(ctx, tenantID, role, id)
	if err != nil {
		return acl.CounterpartyReference{}, asApplicationError("look up counterparty for", err)
	}
	if !exists {
		return acl.CounterpartyReference{}, shared.NewNotFoundError("COUNTERPARTY_NOT_FOUND",
			fmt.Sprintf("%s %s not found", role, id))
	}
	ref, err := s.counterparties.GetCounterpartyReference(ctx, tenantID, role, id)
	if err != nil {
		return acl.CounterpartyReference{}, asApplicationError("look up counterparty for", err)
	}
	return ref, nil
}

func (s *DocumentService) startLifecycleSpan(ctx context.Context, method string, tenantID, id uuid.UUID) (context.Context, trace.Span) {
	return telemetry.StartServiceSpan(ctx, "monetary_document", method,
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrDocumentID.String(id.String()),
	)
}

// afterCommit publishes and clears the aggregate's pending events
func (s *DocumentService) afterCommit(ctx context.Context, docs ...*finance.MonetaryDocument) {
	publishEvents(ctx, s.publisher, s.log(ctx), docs)
}

// fail converts err to an application error, records it and logs conflicts and failures
func (s *DocumentService) fail(ctx context.Context, span trace.Span, op string, err error) error {
	err = asApplicationError(op, err)
	kind := shared.KindOf(err)
	s.metrics.RecordOperationError(ctx, op, kind.String())
	switch kind {
	case shared.KindInternal:
		telemetry.RecordError(span, err)
		s.log(ctx).Error("document operation failed", zap.String("operation", op), zap.Error(err))
	case shared.KindConflict:
		s.log(ctx).Warn("document operation rejected", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func (s *DocumentService) log(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, logger.FromContextOr(ctx, s.logger))
}

// asApplicationError passes domain errors through and wraps anything else as INTERNAL
func asApplicationError(op string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewInternalError(fmt.Sprintf("failed to %s document", op), err)
}

func documentNotFound() error {
	return shared.NewNotFoundError("DOCUMENT_NOT_FOUND", "Monetary document not found")
}

var _ DocumentOperations = (*DocumentService)(nil)
