package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application spans.
const TracerName = "finance-engine"

// Attribute keys of the finance spans and instruments.
var (
	AttrTenantID      = attribute.Key("tenant_id")
	AttrDocumentID    = attribute.Key("document_id")
	AttrTransactionID = attribute.Key("transaction_id")
	AttrDirection     = attribute.Key("direction")
	AttrStatus        = attribute.Key("status")
	AttrInstallments  = attribute.Key("installments")
	AttrAmountCents   = attribute.Key("amount_cents")
	AttrMarkedOverdue = attribute.Key("marked_overdue")
	AttrLockedRows    = attribute.Key("locked_rows")
	AttrCostingLines  = attribute.Key("costing.lines")
	AttrOperation     = attribute.Key("operation")
	AttrErrorKind     = attribute.Key("error_kind")
	AttrSweepResult   = attribute.Key("result")

	AttrHTTPMethod = attribute.Key("http.method")
	AttrHTTPRoute  = attribute.Key("http.route")
	AttrHTTPStatus = attribute.Key("http.status_code")
	// AttrHTTPStatusClass groups status codes as 2xx, 4xx, ...
	AttrHTTPStatusClass = attribute.Key("http.status_class")
)

// StartSpan starts an internal span on the global tracer provider. The
// caller ends it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartServiceSpan starts the span of one application operation, named
// "<service>.<operation>" (monetary_document.settle, overdue_sweep.run).
func StartServiceSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+operation, attrs...)
}

// SetAttributes is span.SetAttributes tolerating a nil span.
func SetAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddEvent adds an event to the recording span of ctx.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// RecordError records err on span and sets the error status. Nil values
// are ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
