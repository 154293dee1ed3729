package finance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/finance/acl"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return m.err
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockDocumentRepository is a mock implementation of finance.MonetaryDocumentRepository.
// The locking methods apply mutate to the documents configured on the call, so the
// domain transition runs exactly as it would inside the transaction.
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.MonetaryDocument, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MonetaryDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.DocumentFilter) ([]finance.MonetaryDocument, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.MonetaryDocument), args.Error(1)
}

func (m *MockDocumentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.DocumentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) FindByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]finance.MonetaryDocument, error) {
	args := m.Called(ctx, tenantID, transactionID)
	return args.Get(0).([]finance.MonetaryDocument), args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *finance.MonetaryDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) CreateBatch(ctx context.Context, docs []*finance.MonetaryDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockDocumentRepository) UpdateWithLock(ctx context.Context, tenantID, id uuid.UUID, mutate finance.MutateFunc) (*finance.MonetaryDocument, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	doc := args.Get(0).(*finance.MonetaryDocument)
	if err := mutate(doc); err != nil {
		return nil, err
	}
	return doc, args.Error(1)
}

func (m *MockDocumentRepository) UpdateByTransactionWithLock(ctx context.Context, tenantID, transactionID uuid.UUID, mutate finance.MutateManyFunc) ([]*finance.MonetaryDocument, error) {
	args := m.Called(ctx, tenantID, transactionID)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	docs := args.Get(0).([]*finance.MonetaryDocument)
	if err := mutate(docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *MockDocumentRepository) MarkOverdue(ctx context.Context, today valueobject.Date) (int64, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) Summarize(ctx context.Context, tenantID uuid.UUID, direction *finance.Direction) (finance.DocumentSummary, error) {
	args := m.Called(ctx, tenantID, direction)
	return args.Get(0).(finance.DocumentSummary), args.Error(1)
}

// MockCounterpartyService is a mock implementation of acl.CounterpartyQueryService
type MockCounterpartyService struct {
	mock.Mock
}

func (m *MockCounterpartyService) CounterpartyExists(ctx context.Context, tenantID uuid.UUID, role acl.CounterpartyRole, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, role, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCounterpartyService) GetCounterpartyReference(ctx context.Context, tenantID uuid.UUID, role acl.CounterpartyRole, id uuid.UUID) (acl.CounterpartyReference, error) {
	args := m.Called(ctx, tenantID, role, id)
	return args.Get(0).(acl.CounterpartyReference), args.Error(1)
}

// MockPaymentMethodService is a mock implementation of acl.PaymentMethodQueryService
type MockPaymentMethodService struct {
	mock.Mock
}

func (m *MockPaymentMethodService) GetPaymentMethodNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

// MockActorService is a mock implementation of acl.ActorQueryService
type MockActorService struct {
	mock.Mock
}

func (m *MockActorService) GetActorNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

// MockDisplayNameCache is a mock implementation of acl.DisplayNameCache
type MockDisplayNameCache struct {
	mock.Mock
}

func (m *MockDisplayNameCache) GetMany(ctx context.Context, tenantID uuid.UUID, kind acl.DisplayNameKind, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, tenantID, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

func (m *MockDisplayNameCache) SetMany(ctx context.Context, tenantID uuid.UUID, kind acl.DisplayNameKind, names map[uuid.UUID]string, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, kind, names, ttl)
	return args.Error(0)
}

// Test fixtures

var (
	issueDate = valueobject.MustParseDate("2024-01-10")
	dueDate   = valueobject.MustParseDate("2024-02-09")
)

func supplierRef(t *testing.T, id uuid.UUID) acl.CounterpartyReference {
	t.Helper()
	ref, err := acl.NewCounterpartyReference(id, acl.CounterpartyRoleSupplier, "Acme Supplies", "12.345.678/0001-90")
	require.NoError(t, err)
	return ref
}

func customerRef(t *testing.T, id uuid.UUID) acl.CounterpartyReference {
	t.Helper()
	ref, err := acl.NewCounterpartyReference(id, acl.CounterpartyRoleCustomer, "Globex", "")
	require.NoError(t, err)
	return ref
}

// newPayable builds an OPEN standalone payable of 10000 cents with its events cleared
func newPayable(t *testing.T, tenantID uuid.UUID) *finance.MonetaryDocument {
	t.Helper()
	doc, err := finance.NewMonetaryDocument(tenantID, finance.NewDocumentParams{
		Direction:      finance.DirectionPayable,
		Counterparty:   supplierRef(t, uuid.New()),
		DocumentNumber: "NF-1001",
		Kind:           finance.DocumentKindInvoice,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		OriginalAmount: valueobject.NewMoney(10000),
	})
	require.NoError(t, err)
	doc.ClearDomainEvents()
	return doc
}

// newDerivedPayable builds an OPEN payable generated from a transaction installment
func newDerivedPayable(t *testing.T, tenantID, transactionID uuid.UUID, seq int, amount int64) *finance.MonetaryDocument {
	t.Helper()
	counterpartyID := uuid.New()
	provenance, err := finance.NewDerivedFrom(transactionID, seq, "55", "1", "9001", counterpartyID)
	require.NoError(t, err)
	doc, err := finance.NewMonetaryDocument(tenantID, finance.NewDocumentParams{
		Direction:      finance.DirectionPayable,
		Provenance:     provenance,
		Counterparty:   supplierRef(t, counterpartyID),
		DocumentNumber: installmentDocumentNumber("9001", transactionID, seq),
		Kind:           finance.DocumentKindDuplicate,
		IssueDate:      issueDate,
		DueDate:        dueDate.AddDays(30 * (seq - 1)),
		OriginalAmount: valueobject.NewMoney(amount),
	})
	require.NoError(t, err)
	doc.ClearDomainEvents()
	return doc
}

func moneyPtr(cents int64) *valueobject.Money {
	m := valueobject.NewMoney(cents)
	return &m
}
