package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/finance/acl"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func assertDomainError(t *testing.T, err error, kind shared.ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %T: %v", err, err)
	assert.Equal(t, kind, de.Kind)
	if code != "" {
		assert.Equal(t, code, de.Code)
	}
}

type documentServiceFixture struct {
	repo           *MockDocumentRepository
	counterparties *MockCounterpartyService
	publisher      *MockEventPublisher
	service        *DocumentService
}

func newDocumentServiceFixture() *documentServiceFixture {
	f := &documentServiceFixture{
		repo:           new(MockDocumentRepository),
		counterparties: new(MockCounterpartyService),
		publisher:      NewMockEventPublisher(),
	}
	f.service = NewDocumentService(f.repo, f.counterparties, WithEventPublisher(f.publisher))
	return f
}

func validCreateRequest(counterpartyID uuid.UUID) CreateDocumentRequest {
	return CreateDocumentRequest{
		Direction:      string(finance.DirectionPayable),
		CounterpartyID: counterpartyID,
		DocumentNumber: "NF-2002",
		Kind:           string(finance.DocumentKindInvoice),
		IssueDate:      issueDate,
		DueDate:        dueDate,
		OriginalAmount: valueobject.NewMoney(10000),
		DiscountAmount: valueobject.NewMoney(500),
		InterestAmount: valueobject.NewMoney(200),
		PenaltyAmount:  valueobject.NewMoney(100),
	}
}

func TestDocumentService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates open payable with computed balance", func(t *testing.T) {
		f := newDocumentServiceFixture()
		counterpartyID := uuid.New()
		f.counterparties.On("CounterpartyExists", mock.Anything, tenantID, acl.CounterpartyRoleSupplier, counterpartyID).Return(true, nil)
		f.counterparties.On("GetCounterpartyReference", mock.Anything, tenantID, acl.CounterpartyRoleSupplier, counterpartyID).
			Return(supplierRef(t, counterpartyID), nil)
		f.repo.On("Create", mock.Anything, mock.AnythingOfType("*finance.MonetaryDocument")).Return(nil)

		resp, err := f.service.Create(ctx, tenantID, validCreateRequest(counterpartyID))
		require.NoError(t, err)

		assert.Equal(t, "OPEN", resp.Status)
		assert.Equal(t, int64(9800), resp.Balance.Cents())
		assert.Equal(t, "Acme Supplies", resp.CounterpartyName)
		assert.Equal(t, ProvenanceStandalone, resp.Provenance.Type)
		assert.Len(t, f.publisher.GetEventsByType(finance.EventTypeDocumentCreated), 1)
		f.repo.AssertExpectations(t)
	})

	t.Run("receivable resolves a customer", func(t *testing.T) {
		f := newDocumentServiceFixture()
		counterpartyID := uuid.New()
		f.counterparties.On("CounterpartyExists", mock.Anything, tenantID, acl.CounterpartyRoleCustomer, counterpartyID).Return(true, nil)
		f.counterparties.On("GetCounterpartyReference", mock.Anything, tenantID, acl.CounterpartyRoleCustomer, counterpartyID).
			Return(customerRef(t, counterpartyID), nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		req := validCreateRequest(counterpartyID)
		req.Direction = string(finance.DirectionReceivable)
		resp, err := f.service.Create(ctx, tenantID, req)
		require.NoError(t, err)
		assert.Equal(t, "RECEIVABLE", resp.Direction)
		f.counterparties.AssertExpectations(t)
	})

	t.Run("missing counterparty is not found", func(t *testing.T) {
		f := newDocumentServiceFixture()
		counterpartyID := uuid.New()
		f.counterparties.On("CounterpartyExists", mock.Anything, tenantID, acl.CounterpartyRoleSupplier, counterpartyID).Return(false, nil)

		_, err := f.service.Create(ctx, tenantID, validCreateRequest(counterpartyID))
		assertDomainError(t, err, shared.KindNotFound, "COUNTERPARTY_NOT_FOUND")
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("validation precedes lookups", func(t *testing.T) {
		f := newDocumentServiceFixture()
		req := validCreateRequest(uuid.New())
		req.Direction = "SIDEWAYS"

		_, err := f.service.Create(ctx, tenantID, req)
		assertDomainError(t, err, shared.KindValidation, "INVALID_DIRECTION")
		f.counterparties.AssertNotCalled(t, "CounterpartyExists", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-positive original amount", func(t *testing.T) {
		f := newDocumentServiceFixture()
		counterpartyID := uuid.New()
		f.counterparties.On("CounterpartyExists", mock.Anything, tenantID, acl.CounterpartyRoleSupplier, counterpartyID).Return(true, nil)
		f.counterparties.On("GetCounterpartyReference", mock.Anything, tenantID, acl.CounterpartyRoleSupplier, counterpartyID).
			Return(supplierRef(t, counterpartyID), nil)

		req := validCreateRequest(counterpartyID)
		req.OriginalAmount = valueobject.Zero()
		_, err := f.service.Create(ctx, tenantID, req)
		assertDomainError(t, err, shared.KindValidation, "INVALID_AMOUNT")
	})

	t.Run("repository failure is internal", func(t *testing.T) {
		f := newDocumentServiceFixture()
		counterpartyID := uuid.New()
		f.counterparties.On("CounterpartyExists", mock.Anything, tenantID, acl.CounterpartyRoleSupplier, counterpartyID).Return(true, nil)
		f.counterparties.On("GetCounterpartyReference", mock.Anything, tenantID, acl.CounterpartyRoleSupplier, counterpartyID).
			Return(supplierRef(t, counterpartyID), nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		_, err := f.service.Create(ctx, tenantID, validCreateRequest(counterpartyID))
		assertDomainError(t, err, shared.KindInternal, "INTERNAL_ERROR")
		assert.Empty(t, f.publisher.GetEventsByType(finance.EventTypeDocumentCreated))
	})
}

func TestDocumentService_Settle(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	settledBy := uuid.New()

	t.Run("full settlement within tolerance", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		resp, err := f.service.Settle(ctx, tenantID, doc.ID, SettleDocumentRequest{
			PaidAmount:     valueobject.NewMoney(9999),
			SettlementDate: dueDate,
			SettledBy:      &settledBy,
		})
		require.NoError(t, err)
		assert.Equal(t, "SETTLED", resp.Status)
		assert.Equal(t, int64(10000), resp.PaidAmount.Cents())
		assert.True(t, resp.Balance.IsZero())
		assert.Equal(t, &settledBy, resp.SettledBy)
		assert.Len(t, f.publisher.GetEventsByType(finance.EventTypeDocumentSettled), 1)
	})

	t.Run("overrides change the total", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		resp, err := f.service.Settle(ctx, tenantID, doc.ID, SettleDocumentRequest{
			PaidAmount:     valueobject.NewMoney(10350),
			InterestAmount: moneyPtr(300),
			PenaltyAmount:  moneyPtr(50),
			SettlementDate: dueDate.AddDays(5),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10350), resp.PaidAmount.Cents())
		assert.Equal(t, int64(300), resp.InterestAmount.Cents())
	})

	t.Run("partial payment is a conflict", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		_, err := f.service.Settle(ctx, tenantID, doc.ID, SettleDocumentRequest{
			PaidAmount:     valueobject.NewMoney(5000),
			SettlementDate: dueDate,
		})
		assertDomainError(t, err, shared.KindConflict, "PARTIAL_SETTLEMENT_NOT_ALLOWED")
		assert.Equal(t, finance.DocumentStatusOpen, doc.Status)
	})

	t.Run("second settle sees SETTLED", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		req := SettleDocumentRequest{PaidAmount: valueobject.NewMoney(10000), SettlementDate: dueDate}
		_, err := f.service.Settle(ctx, tenantID, doc.ID, req)
		require.NoError(t, err)

		_, err = f.service.Settle(ctx, tenantID, doc.ID, req)
		assertDomainError(t, err, shared.KindConflict, "INVALID_STATE")
	})

	t.Run("overdue documents can be settled", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		require.True(t, doc.MarkOverdue(dueDate.AddDays(1)))
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		resp, err := f.service.Settle(ctx, tenantID, doc.ID, SettleDocumentRequest{
			PaidAmount:     valueobject.NewMoney(10000),
			SettlementDate: dueDate.AddDays(1),
		})
		require.NoError(t, err)
		assert.Equal(t, "SETTLED", resp.Status)
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newDocumentServiceFixture()
		id := uuid.New()
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, id).Return(nil, documentNotFound())

		_, err := f.service.Settle(ctx, tenantID, id, SettleDocumentRequest{
			PaidAmount:     valueobject.NewMoney(1),
			SettlementDate: dueDate,
		})
		assertDomainError(t, err, shared.KindNotFound, "DOCUMENT_NOT_FOUND")
	})
}

func TestDocumentService_Cancel(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("standalone open document", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		resp, err := f.service.Cancel(ctx, tenantID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.Equal(t, int64(10000), resp.Balance.Cents(), "monetary fields are kept")
		assert.NotNil(t, resp.CancelledAt)
	})

	t.Run("derived document must go through its transaction", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newDerivedPayable(t, tenantID, uuid.New(), 1, 5000)
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		_, err := f.service.Cancel(ctx, tenantID, doc.ID)
		assertDomainError(t, err, shared.KindConflict, "DERIVED_DOCUMENT")
		assert.Equal(t, finance.DocumentStatusOpen, doc.Status)
	})

	t.Run("settled document", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		require.NoError(t, doc.Settle(finance.Settlement{PaidAmount: doc.Balance, SettlementDate: dueDate}))
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		_, err := f.service.Cancel(ctx, tenantID, doc.ID)
		assertDomainError(t, err, shared.KindConflict, "INVALID_STATE")
	})
}

func TestDocumentService_Remove(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("open document is soft deleted", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		require.NoError(t, f.service.Remove(ctx, tenantID, doc.ID))
		assert.True(t, doc.Removed)
		assert.Equal(t, finance.DocumentStatusOpen, doc.Status)
		assert.Len(t, f.publisher.GetEventsByType(finance.EventTypeDocumentRemoved), 1)
	})

	t.Run("settled document cannot be removed", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		require.NoError(t, doc.Settle(finance.Settlement{PaidAmount: doc.Balance, SettlementDate: dueDate}))
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		err := f.service.Remove(ctx, tenantID, doc.ID)
		assertDomainError(t, err, shared.KindConflict, "INVALID_STATE")
		assert.False(t, doc.Removed)
	})
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("amount change recomputes balance", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		kind := string(finance.DocumentKindBill)
		resp, err := f.service.Update(ctx, tenantID, doc.ID, UpdateDocumentRequest{
			Kind:           &kind,
			OriginalAmount: moneyPtr(12000),
			DiscountAmount: moneyPtr(1000),
			PaidAmount:     moneyPtr(2000),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(9000), resp.Balance.Cents())
		assert.Equal(t, "BILL", resp.Kind)
		assert.Equal(t, "OPEN", resp.Status)
	})

	t.Run("settled document is terminal", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		require.NoError(t, doc.Settle(finance.Settlement{PaidAmount: doc.Balance, SettlementDate: dueDate}))
		f.repo.On("UpdateWithLock", mock.Anything, tenantID, doc.ID).Return(doc, nil)

		notes := "late"
		_, err := f.service.Update(ctx, tenantID, doc.ID, UpdateDocumentRequest{Notes: &notes})
		assertDomainError(t, err, shared.KindConflict, "INVALID_STATE")
	})

	t.Run("invalid kind is rejected before locking", func(t *testing.T) {
		f := newDocumentServiceFixture()
		kind := "RECEIPT"
		_, err := f.service.Update(ctx, tenantID, uuid.New(), UpdateDocumentRequest{Kind: &kind})
		assertDomainError(t, err, shared.KindValidation, "INVALID_DOCUMENT_KIND")
		f.repo.AssertNotCalled(t, "UpdateWithLock", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Queries(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("get returns not found for missing", func(t *testing.T) {
		f := newDocumentServiceFixture()
		id := uuid.New()
		f.repo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, nil)

		_, err := f.service.Get(ctx, tenantID, id)
		assertDomainError(t, err, shared.KindNotFound, "DOCUMENT_NOT_FOUND")
	})

	t.Run("list rejects PARTIAL", func(t *testing.T) {
		f := newDocumentServiceFixture()
		_, _, err := f.service.List(ctx, tenantID, ListDocumentsFilter{Status: "PARTIAL"})
		assertDomainError(t, err, shared.KindValidation, "INVALID_STATUS")
	})

	t.Run("list applies filter and pagination defaults", func(t *testing.T) {
		f := newDocumentServiceFixture()
		doc := newPayable(t, tenantID)
		matches := mock.MatchedBy(func(df finance.DocumentFilter) bool {
			return df.Page == 1 && df.PageSize == 20 &&
				df.Direction != nil && *df.Direction == finance.DirectionPayable
		})
		f.repo.On("FindAllForTenant", mock.Anything, tenantID, matches).Return([]finance.MonetaryDocument{*doc}, nil)
		f.repo.On("CountForTenant", mock.Anything, tenantID, matches).Return(int64(1), nil)

		docs, total, err := f.service.List(ctx, tenantID, ListDocumentsFilter{Direction: "PAYABLE"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, docs, 1)
		assert.Equal(t, doc.ID, docs[0].ID)
	})

	t.Run("list overdue forces status and due date order", func(t *testing.T) {
		f := newDocumentServiceFixture()
		matches := mock.MatchedBy(func(df finance.DocumentFilter) bool {
			return df.Status != nil && *df.Status == finance.DocumentStatusOverdue &&
				df.OrderBy == "due_date" && !df.IncludeRemoved
		})
		f.repo.On("FindAllForTenant", mock.Anything, tenantID, matches).Return([]finance.MonetaryDocument{}, nil)
		f.repo.On("CountForTenant", mock.Anything, tenantID, matches).Return(int64(0), nil)

		docs, total, err := f.service.ListOverdue(ctx, tenantID, ListDocumentsFilter{Status: "SETTLED", IncludeRemoved: true})
		require.NoError(t, err)
		assert.Empty(t, docs)
		assert.Zero(t, total)
		f.repo.AssertExpectations(t)
	})

	t.Run("summary totals", func(t *testing.T) {
		f := newDocumentServiceFixture()
		f.repo.On("Summarize", mock.Anything, tenantID, mock.MatchedBy(func(d *finance.Direction) bool {
			return d != nil && *d == finance.DirectionReceivable
		})).Return(finance.DocumentSummary{
			OpenCount:      2,
			OpenBalance:    valueobject.NewMoney(1500),
			OverdueCount:   1,
			OverdueBalance: valueobject.NewMoney(500),
		}, nil)

		resp, err := f.service.Summary(ctx, tenantID, "RECEIVABLE")
		require.NoError(t, err)
		assert.Equal(t, int64(2000), resp.TotalBalance.Cents())
		assert.Equal(t, "RECEIVABLE", resp.Direction)
	})
}
