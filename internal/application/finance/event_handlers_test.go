package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDocumentAuditHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewDocumentAuditHandler(zap.New(core))

	assert.Contains(t, h.EventTypes(), finance.EventTypeDocumentSettled)
	assert.Len(t, h.EventTypes(), 6)

	doc := newPayable(t, uuid.New())
	require.NoError(t, doc.Settle(finance.Settlement{PaidAmount: valueobject.NewMoney(10000), SettlementDate: dueDate}))
	events := doc.GetDomainEvents()
	require.Len(t, events, 1)

	require.NoError(t, h.Handle(context.Background(), events[0]))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, finance.EventTypeDocumentSettled, fields["event_type"])
	assert.Equal(t, "OPEN", fields["previous_status"])
	assert.Equal(t, int64(10000), fields["paid_cents"])
}

func TestPublishEvents(t *testing.T) {
	t.Run("publishes and clears", func(t *testing.T) {
		pub := NewMockEventPublisher()
		a, b := newPayable(t, uuid.New()), newPayable(t, uuid.New())
		require.NoError(t, a.Cancel())
		require.NoError(t, b.Remove())

		publishEvents(context.Background(), pub, zap.NewNop(), []*finance.MonetaryDocument{a, nil, b})

		assert.Len(t, pub.GetEventsByType(finance.EventTypeDocumentCancelled), 1)
		assert.Len(t, pub.GetEventsByType(finance.EventTypeDocumentRemoved), 1)
		assert.Empty(t, a.GetDomainEvents())
		assert.Empty(t, b.GetDomainEvents())
	})

	t.Run("publish failure only logs", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		pub := NewMockEventPublisher()
		pub.err = errors.New("bus stopped")
		doc := newPayable(t, uuid.New())
		require.NoError(t, doc.Cancel())

		assert.NotPanics(t, func() {
			publishEvents(context.Background(), pub, zap.New(core), []*finance.MonetaryDocument{doc})
		})
		assert.Equal(t, 1, logs.FilterMessage("failed to publish document events").Len())
		assert.Empty(t, doc.GetDomainEvents())
	})

	t.Run("nil publisher still clears", func(t *testing.T) {
		doc := newPayable(t, uuid.New())
		require.NoError(t, doc.Cancel())
		publishEvents(context.Background(), nil, zap.NewNop(), []*finance.MonetaryDocument{doc})
		assert.Empty(t, doc.GetDomainEvents())
	})
}
