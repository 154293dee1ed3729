package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	financeapp "github.com/erp/backoffice/internal/application/finance"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// MockDocumentOperations implements financeapp.DocumentOperations for testing
type MockDocumentOperations struct {
	mock.Mock
}

func (m *MockDocumentOperations) Create(ctx context.Context, tenantID uuid.UUID, req financeapp.CreateDocumentRequest) (*financeapp.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.DocumentResponse), args.Error(1)
}

func (m *MockDocumentOperations) Get(ctx context.Context, tenantID, id uuid.UUID) (*financeapp.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.DocumentResponse), args.Error(1)
}

func (m *MockDocumentOperations) List(ctx context.Context, tenantID uuid.UUID, filter financeapp.ListDocumentsFilter) ([]financeapp.DocumentResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]financeapp.DocumentResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentOperations) ListOverdue(ctx context.Context, tenantID uuid.UUID, filter financeapp.ListDocumentsFilter) ([]financeapp.DocumentResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]financeapp.DocumentResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentOperations) Summary(ctx context.Context, tenantID uuid.UUID, direction string) (*financeapp.SummaryResponse, error) {
	args := m.Called(ctx, tenantID, direction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.SummaryResponse), args.Error(1)
}

func (m *MockDocumentOperations) Settle(ctx context.Context, tenantID, id uuid.UUID, req financeapp.SettleDocumentRequest) (*financeapp.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.DocumentResponse), args.Error(1)
}

func (m *MockDocumentOperations) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*financeapp.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.DocumentResponse), args.Error(1)
}

func (m *MockDocumentOperations) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockDocumentOperations) Update(ctx context.Context, tenantID, id uuid.UUID, req financeapp.UpdateDocumentRequest) (*financeapp.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.DocumentResponse), args.Error(1)
}

// MockInstallmentOperations implements InstallmentOperations for testing
type MockInstallmentOperations struct {
	mock.Mock
}

func (m *MockInstallmentOperations) Preview(ctx context.Context, tenantID uuid.UUID, req financeapp.PreviewInstallmentsRequest) (*financeapp.ScheduleResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.ScheduleResponse), args.Error(1)
}

func (m *MockInstallmentOperations) Confirm(ctx context.Context, tenantID uuid.UUID, req financeapp.ConfirmInstallmentsRequest) ([]financeapp.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]financeapp.DocumentResponse), args.Error(1)
}

func (m *MockInstallmentOperations) CancelDerivedByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]financeapp.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]financeapp.DocumentResponse), args.Error(1)
}

// MockOverdueSweeper implements OverdueSweeper for testing
type MockOverdueSweeper struct {
	mock.Mock
}

func (m *MockOverdueSweeper) Sweep(ctx context.Context) (*financeapp.SweepResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.SweepResponse), args.Error(1)
}

// newTestEngine builds an engine with the request-scoped middleware the
// handlers depend on
func newTestEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.TenantMiddleware(middleware.DefaultTenantConfig()))
	return engine
}

type testRequest struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func serve(engine *gin.Engine, r testRequest) *httptest.ResponseRecorder {
	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) APIResponse[T] {
	t.Helper()
	var resp APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error)
	return resp
}

