package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "MonetaryDocument", uuid.New(), uuid.New()),
	}
}

type recordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []string
	err        error
	panicWith  any
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	h.handled = append(h.handled, event.EventType())
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func newBus(t *testing.T, log *zap.Logger, opts ...BusOption) *Bus {
	t.Helper()
	bus, err := NewBus(log, opts...)
	require.NoError(t, err)
	return bus
}

func TestBus_RoutesByType(t *testing.T) {
	bus := newBus(t, zap.NewNop())
	settled := &recordingHandler{eventTypes: []string{"MonetaryDocumentSettled"}}
	all := &recordingHandler{}
	bus.Subscribe(settled)
	bus.Subscribe(all)

	err := bus.Publish(context.Background(),
		newTestEvent("MonetaryDocumentCreated"),
		newTestEvent("MonetaryDocumentSettled"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"MonetaryDocumentSettled"}, settled.seen())
	assert.Equal(t, []string{"MonetaryDocumentCreated", "MonetaryDocumentSettled"}, all.seen())
}

func TestBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := newBus(t, nil)
	h := &recordingHandler{eventTypes: []string{"A"}}
	bus.Subscribe(h, "B")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B")))
	assert.Equal(t, []string{"B"}, h.seen())
}

func TestBus_FailuresAreIsolated(t *testing.T) {
	bus := newBus(t, zap.NewNop())
	failing := &recordingHandler{err: errors.New("downstream unavailable")}
	panicking := &recordingHandler{panicWith: "boom"}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("X"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"X"}, healthy.seen())
	assert.Equal(t, int64(2), bus.Failures())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := newBus(t, zap.NewNop())
	h := &recordingHandler{eventTypes: []string{"A", "B"}}
	w := &recordingHandler{}
	bus.Subscribe(h)
	bus.Subscribe(w)
	bus.Unsubscribe(h)
	bus.Unsubscribe(w)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A")))
	assert.Empty(t, h.seen())
	assert.Empty(t, w.seen())
	assert.Zero(t, bus.subscriptions())
}

func TestBus_StartStop(t *testing.T) {
	bus := newBus(t, zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.running.Load())
	require.NoError(t, bus.Stop(context.Background()))
	assert.False(t, bus.running.Load())
}

func TestBus_CountsFailuresOnMeter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	bus := newBus(t, nil, WithMeter(provider.Meter("test")))
	bus.Subscribe(&recordingHandler{err: errors.New("nope")})

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("MonetaryDocumentSettled"), newTestEvent("MonetaryDocumentSettled")))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
	eventType, _ := sum.DataPoints[0].Attributes.Value(attrEventType)
	assert.Equal(t, "MonetaryDocumentSettled", eventType.AsString())
}
