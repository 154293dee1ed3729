package finance

import (
	"context"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// publishEvents hands the documents' pending events to the publisher and clears them.
// A publish failure is logged; the state change is already committed.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, log *zap.Logger, docs []*finance.MonetaryDocument) {
	var events []shared.DomainEvent
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		events = append(events, doc.GetDomainEvents()...)
		doc.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		log.Warn("failed to publish document events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// DocumentAuditHandler writes one structured log line per document event
type DocumentAuditHandler struct {
	logger *zap.Logger
}

// NewDocumentAuditHandler creates a new DocumentAuditHandler
func NewDocumentAuditHandler(l *zap.Logger) *DocumentAuditHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &DocumentAuditHandler{logger: l.Named("finance.audit")}
}

// EventTypes returns the document event types
func (h *DocumentAuditHandler) EventTypes() []string {
	return []string{
		finance.EventTypeDocumentCreated,
		finance.EventTypeDocumentSettled,
		finance.EventTypeDocumentCancelled,
		finance.EventTypeDocumentRemoved,
		finance.EventTypeDocumentUpdated,
		finance.EventTypeDocumentMarkedOverdue,
	}
}

// Handle logs the event
func (h *DocumentAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("document_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	switch e := event.(type) {
	case *finance.DocumentSettledEvent:
		fields = append(fields,
			zap.String("previous_status", string(e.PreviousStatus)),
			zap.Int64("paid_cents", e.PaidAmount.Cents()),
		)
	case *finance.DocumentCancelledEvent:
		fields = append(fields, zap.String("previous_status", string(e.PreviousStatus)))
	}
	logger.Enrich(ctx, h.logger).Info("document event", fields...)
	return nil
}

var _ shared.EventHandler = (*DocumentAuditHandler)(nil)
