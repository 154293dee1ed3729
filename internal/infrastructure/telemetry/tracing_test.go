package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestStartServiceSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "monetary_document", "settle",
		AttrDirection.String("PAYABLE"))
	SetAttributes(span, AttrAmountCents.Int64(9800), AttrStatus.String("PAID"))
	AddEvent(ctx, "row_locked", AttrDocumentID.String("abc"))
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "monetary_document.settle", ended[0].Name())

	attrs := map[attribute.Key]any{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value.AsInterface()
	}
	assert.Equal(t, "PAYABLE", attrs[AttrDirection])
	assert.Equal(t, int64(9800), attrs[AttrAmountCents])
	assert.Equal(t, "PAID", attrs[AttrStatus])

	require.Len(t, ended[0].Events(), 1)
	event := ended[0].Events()[0]
	assert.Equal(t, "row_locked", event.Name)
	assert.Contains(t, event.Attributes, AttrDocumentID.String("abc"))
}

func TestRecordError(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "op")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
	assert.Len(t, ended[0].Events(), 1)
}

func TestHelpersWithoutSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, AttrStatus.String("OPEN"))
		RecordError(nil, errors.New("x"))
		AddEvent(context.Background(), "e", AttrLockedRows.Int(1))
	})
}
