package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives a nil meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// FinanceMetrics holds the counters and histograms for the document lifecycle.
// A nil *FinanceMetrics is valid and records nothing.
type FinanceMetrics struct {
	documentsCreated   *Counter
	documentsSettled   *Counter
	documentsCancelled *Counter
	documentsRemoved   *Counter
	operationErrors    *Counter
	documentsSwept     *Counter
	sweepRuns          *Counter
	sweepDuration      *Histogram
}

// NewFinanceMetrics registers finance instruments on meter.
func NewFinanceMetrics(meter metric.Meter) (*FinanceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &FinanceMetrics{}
	counters := []struct {
		dst  **Counter
		name string
		desc string
		unit string
	}{
		{&m.documentsCreated, "finance_documents_created_total", "Monetary documents created", "{document}"},
		{&m.documentsSettled, "finance_documents_settled_total", "Monetary documents settled", "{document}"},
		{&m.documentsCancelled, "finance_documents_cancelled_total", "Monetary documents cancelled", "{document}"},
		{&m.documentsRemoved, "finance_documents_removed_total", "Monetary documents soft-deleted", "{document}"},
		{&m.operationErrors, "finance_operation_errors_total", "Rejected document operations by error kind", "{error}"},
		{&m.documentsSwept, "finance_documents_marked_overdue_total", "Documents transitioned to OVERDUE", "{document}"},
		{&m.sweepRuns, "finance_overdue_sweep_runs_total", "Overdue sweep executions", "{run}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	hist, err := NewHistogram(meter, HistogramOpts{
		Name:        "finance_overdue_sweep_duration_seconds",
		Description: "Duration of overdue sweep executions",
		Unit:        "s",
		Buckets:     SweepDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	m.sweepDuration = hist
	return m, nil
}

func documentAttrs(tenantID uuid.UUID, direction string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrDirection.String(direction),
	}
}

// RecordCreated counts created documents.
func (m *FinanceMetrics) RecordCreated(ctx context.Context, tenantID uuid.UUID, direction string, n int) {
	if m == nil {
		return
	}
	m.documentsCreated.Add(ctx, int64(n), documentAttrs(tenantID, direction)...)
}

// RecordSettled counts a settled document.
func (m *FinanceMetrics) RecordSettled(ctx context.Context, tenantID uuid.UUID, direction string) {
	if m == nil {
		return
	}
	m.documentsSettled.Inc(ctx, documentAttrs(tenantID, direction)...)
}

// RecordCancelled counts cancelled documents.
func (m *FinanceMetrics) RecordCancelled(ctx context.Context, tenantID uuid.UUID, direction string, n int) {
	if m == nil {
		return
	}
	m.documentsCancelled.Add(ctx, int64(n), documentAttrs(tenantID, direction)...)
}

// RecordRemoved counts a soft-deleted document.
func (m *FinanceMetrics) RecordRemoved(ctx context.Context, tenantID uuid.UUID, direction string) {
	if m == nil {
		return
	}
	m.documentsRemoved.Inc(ctx, documentAttrs(tenantID, direction)...)
}

// RecordOperationError counts a rejected operation.
func (m *FinanceMetrics) RecordOperationError(ctx context.Context, operation, kind string) {
	if m == nil {
		return
	}
	m.operationErrors.Inc(ctx, AttrOperation.String(operation), AttrErrorKind.String(kind))
}

// RecordSweep records one sweep execution and the number of documents it moved.
func (m *FinanceMetrics) RecordSweep(ctx context.Context, marked int64, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.sweepRuns.Inc(ctx, AttrSweepResult.String(result))
	m.sweepDuration.RecordDuration(ctx, elapsed, AttrSweepResult.String(result))
	if marked > 0 {
		m.documentsSwept.Add(ctx, marked)
	}
}
