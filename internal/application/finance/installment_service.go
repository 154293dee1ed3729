package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxDocumentNumberLength = 50

// InstallmentService generates installment schedules and turns confirmed
// schedules into derived documents
type InstallmentService struct {
	repo      finance.MonetaryDocumentRepository
	documents *DocumentService
	resolver  *DisplayNameResolver
}

// NewInstallmentService creates a new InstallmentService. documents supplies the
// counterparty lookup, publisher, metrics and logger; resolver may be nil.
func NewInstallmentService(repo finance.MonetaryDocumentRepository, documents *DocumentService, resolver *DisplayNameResolver) *InstallmentService {
	return &InstallmentService{repo: repo, documents: documents, resolver: resolver}
}

// Preview generates a schedule without persisting anything.
// Payment method names that cannot be resolved stay empty.
func (s *InstallmentService) Preview(ctx context.Context, tenantID uuid.UUID, req PreviewInstallmentsRequest) (*ScheduleResponse, error) {
	template := finance.PaymentTermTemplate{Installments: make([]finance.InstallmentSpec, len(req.Installments))}
	for i, in := range req.Installments {
		template.Installments[i] = finance.InstallmentSpec{
			SequenceNumber:    in.SequenceNumber,
			DaysToPayment:     in.DaysToPayment,
			PercentageOfTotal: in.PercentageOfTotal,
			PaymentMethodID:   in.PaymentMethodID,
		}
	}

	installments, err := finance.GenerateInstallments(template, req.BaseDate, req.TotalAmount)
	if err != nil {
		return &ScheduleResponse{TotalAmount: req.TotalAmount, Installments: []InstallmentResponse{}}, err
	}

	ids := make([]uuid.UUID, 0, len(installments))
	for _, inst := range installments {
		ids = append(ids, inst.PaymentMethodID)
	}
	names := s.resolver.PaymentMethodNames(ctx, tenantID, ids)

	resp := &ScheduleResponse{
		TotalAmount:  finance.SumInstallments(installments),
		Installments: make([]InstallmentResponse, len(installments)),
	}
	for i, inst := range installments {
		resp.Installments[i] = InstallmentResponse{
			SequenceNumber:    inst.SequenceNumber,
			DueDate:           inst.DueDate,
			PaymentMethodID:   inst.PaymentMethodID,
			PaymentMethodName: names[inst.PaymentMethodID],
			Amount:            inst.Amount,
		}
	}
	return resp, nil
}

// Confirm stores one derived document per installment in a single transaction.
// Confirming a sequence that already has an active document is a conflict.
func (s *InstallmentService) Confirm(ctx context.Context, tenantID uuid.UUID, req ConfirmInstallmentsRequest) ([]DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "installment", "confirm",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrTransactionID.String(req.TransactionID.String()),
		telemetry.AttrInstallments.Int(len(req.Installments)),
	)
	defer span.End()

	const op = "confirm installments"
	if len(req.Installments) == 0 {
		return nil, s.documents.fail(ctx, span, op,
			shared.NewValidationError("EMPTY_INSTALLMENTS", "At least one installment is required"))
	}
	direction, err := parseDirection(req.Direction)
	if err != nil {
		return nil, s.documents.fail(ctx, span, op, err)
	}
	kind := finance.DocumentKindDuplicate
	if req.Kind != "" {
		if kind, err = parseKind(req.Kind); err != nil {
			return nil, s.documents.fail(ctx, span, op, err)
		}
	}
	if req.IssueDate.IsZero() {
		return nil, s.documents.fail(ctx, span, op,
			shared.NewValidationError("INVALID_ISSUE_DATE", "Issue date is required"))
	}
	counterparty, err := s.documents.resolveCounterparty(ctx, tenantID, direction, req.CounterpartyID)
	if err != nil {
		return nil, s.documents.fail(ctx, span, op, err)
	}

	if err := s.ensureNotConfirmed(ctx, tenantID, req); err != nil {
		return nil, s.documents.fail(ctx, span, op, err)
	}

	docs := make([]*finance.MonetaryDocument, 0, len(req.Installments))
	for _, inst := range req.Installments {
		provenance, err := finance.NewDerivedFrom(req.TransactionID, inst.SequenceNumber,
			req.Model, req.Series, req.Number, req.CounterpartyID)
		if err != nil {
			return nil, s.documents.fail(ctx, span, op, err)
		}
		doc, err := finance.NewMonetaryDocument(tenantID, finance.NewDocumentParams{
			Direction:       direction,
			Provenance:      provenance,
			Counterparty:    counterparty,
			DocumentNumber:  installmentDocumentNumber(req.Number, req.TransactionID, inst.SequenceNumber),
			Kind:            kind,
			IssueDate:       req.IssueDate,
			DueDate:         inst.DueDate,
			OriginalAmount:  inst.Amount,
			PaymentMethodID: inst.PaymentMethodID,
			CreatedBy:       req.CreatedBy,
		})
		if err != nil {
			return nil, s.documents.fail(ctx, span, op,
				annotateInstallment(inst.SequenceNumber, err))
		}
		docs = append(docs, doc)
	}

	if err := s.repo.CreateBatch(ctx, docs); err != nil {
		return nil, s.documents.fail(ctx, span, op, err)
	}

	s.documents.afterCommit(ctx, docs...)
	s.documents.metrics.RecordCreated(ctx, tenantID, string(direction), len(docs))
	s.documents.log(ctx).Info("installments confirmed",
		zap.String("transaction_id", req.TransactionID.String()),
		zap.Int("documents", len(docs)),
	)

	out := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		out[i] = *ToDocumentResponse(doc)
	}
	return out, nil
}

// CancelDerivedByTransaction cancels every active document derived from a
// transaction. A settled document aborts the whole cascade.
func (s *InstallmentService) CancelDerivedByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "installment", "cancel_by_transaction",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrTransactionID.String(transactionID.String()),
	)
	defer span.End()

	const op = "cancel derived"
	cancelled := 0
	docs, err := s.repo.UpdateByTransactionWithLock(ctx, tenantID, transactionID, func(docs []*finance.MonetaryDocument) error {
		if len(docs) == 0 {
			return shared.NewNotFoundError("TRANSACTION_DOCUMENTS_NOT_FOUND",
				fmt.Sprintf("No documents were generated from transaction %s", transactionID))
		}
		for _, doc := range docs {
			if doc.IsSettled() {
				return shared.NewConflictError("TRANSACTION_HAS_SETTLED_DOCUMENTS",
					fmt.Sprintf("Document %s is already settled; the transaction cannot be cancelled", doc.DocumentNumber))
			}
		}
		for _, doc := range docs {
			if doc.IsCancelled() {
				continue
			}
			if err := doc.CancelWithTransaction(transactionID); err != nil {
				return err
			}
			cancelled++
		}
		return nil
	})
	if err != nil {
		return nil, s.documents.fail(ctx, span, op, err)
	}

	s.documents.afterCommit(ctx, docs...)
	if cancelled > 0 {
		s.documents.metrics.RecordCancelled(ctx, tenantID, string(docs[0].Direction), cancelled)
	}
	s.documents.log(ctx).Info("transaction documents cancelled",
		zap.String("transaction_id", transactionID.String()),
		zap.Int("cancelled", cancelled),
	)

	out := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		out[i] = *ToDocumentResponse(doc)
	}
	return out, nil
}

func (s *InstallmentService) ensureNotConfirmed(ctx context.Context, tenantID uuid.UUID, req ConfirmInstallmentsRequest) error {
	requested := make(map[int]struct{}, len(req.Installments))
	for _, inst := range req.Installments {
		if _, dup := requested[inst.SequenceNumber]; dup {
			return shared.NewValidationError("INVALID_INSTALLMENT_SEQ",
				fmt.Sprintf("Installment sequence %d appears more than once", inst.SequenceNumber))
		}
		requested[inst.SequenceNumber] = struct{}{}
	}

	existing, err := s.repo.FindByTransaction(ctx, tenantID, req.TransactionID)
	if err != nil {
		return err
	}
	for i := range existing {
		if existing[i].IsCancelled() || existing[i].Removed {
			continue
		}
		origin, ok := finance.OriginOf(existing[i].Provenance)
		if !ok {
			continue
		}
		if _, clash := requested[origin.InstallmentSeq]; clash {
			return shared.NewConflictError("DUPLICATE_INSTALLMENT",
				fmt.Sprintf("Installment %d of transaction %s is already confirmed", origin.InstallmentSeq, req.TransactionID))
		}
	}
	return nil
}

// installmentDocumentNumber builds "<number>/<seq>", falling back to a prefix
// of the transaction id and trimming the base so the result fits the column.
func installmentDocumentNumber(number string, transactionID uuid.UUID, seq int) string {
	if number == "" {
		number = transactionID.String()[:8]
	}
	suffix := fmt.Sprintf("/%d", seq)
	if len(number)+len(suffix) > maxDocumentNumberLength {
		number = number[:maxDocumentNumberLength-len(suffix)]
	}
	return number + suffix
}

func annotateInstallment(seq int, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return &shared.DomainError{
			Kind:    de.Kind,
			Code:    de.Code,
			Message: fmt.Sprintf("Installment %d: %s", seq, de.Message),
		}
	}
	return err
}
