package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/service"
	"github.com/Fanatic033/shoro-market/pkg/health"
	"github.com/Fanatic033/shoro-market/pkg/httputil"
	"github.com/Fanatic033/shoro-market/pkg/logger"
	"github.com/Fanatic033/shoro-market/pkg/middleware"
	"github.com/Fanatic033/shoro-market/pkg/pagination"
)

// ============================================================================
// Mocks
// ============================================================================

type mockCartService struct {
	mock.Mock
}

func (m *mockCartService) snapshot(args mock.Arguments) (domain.Snapshot, error) {
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (m *mockCartService) GetCart(ctx context.Context, userID string) (domain.Snapshot, error) {
	return m.snapshot(m.Called(ctx, userID))
}

func (m *mockCartService) AddItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error) {
	return m.snapshot(m.Called(ctx, userID, productID))
}

func (m *mockCartService) IncreaseItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error) {
	return m.snapshot(m.Called(ctx, userID, productID))
}

func (m *mockCartService) DecreaseItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error) {
	return m.snapshot(m.Called(ctx, userID, productID))
}

func (m *mockCartService) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) (domain.Snapshot, error) {
	return m.snapshot(m.Called(ctx, userID, productID, quantity))
}

func (m *mockCartService) RemoveItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error) {
	return m.snapshot(m.Called(ctx, userID, productID))
}

func (m *mockCartService) ItemQuantity(ctx context.Context, userID string, productID int64) (int, bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *mockCartService) ClearCart(ctx context.Context, userID string) (domain.Snapshot, error) {
	return m.snapshot(m.Called(ctx, userID))
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) Checkout(ctx context.Context, userID string, input service.CheckoutInput) (*domain.Order, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) ListOrders(ctx context.Context, userID string, page pagination.Params) (pagination.Result[domain.Order], error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).(pagination.Result[domain.Order]), args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) Reorder(ctx context.Context, userID, orderID string) (domain.Snapshot, error) {
	args := m.Called(ctx, userID, orderID)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

type mockAddressService struct {
	mock.Mock
}

func (m *mockAddressService) address(args mock.Arguments) (*domain.Address, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressService) List(ctx context.Context, userID string) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *mockAddressService) Add(ctx context.Context, userID string, in service.AddressInput) (*domain.Address, error) {
	return m.address(m.Called(ctx, userID, in))
}

func (m *mockAddressService) Update(ctx context.Context, userID, id string, patch service.AddressPatch) (*domain.Address, error) {
	return m.address(m.Called(ctx, userID, id, patch))
}

func (m *mockAddressService) Remove(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockAddressService) SetDefault(ctx context.Context, userID, id string) (*domain.Address, error) {
	return m.address(m.Called(ctx, userID, id))
}

func (m *mockAddressService) Default(ctx context.Context, userID string) (*domain.Address, error) {
	return m.address(m.Called(ctx, userID))
}

type stubCatalog struct {
	products []domain.Product
	err      error
}

func (s *stubCatalog) Products(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

// ============================================================================
// Test helpers
// ============================================================================

const testUser = "1042"

type testServer struct {
	router    http.Handler
	carts     *mockCartService
	orders    *mockOrderService
	addresses *mockAddressService
	catalog   *stubCatalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		carts:     &mockCartService{},
		orders:    &mockOrderService{},
		addresses: &mockAddressService{},
		catalog:   &stubCatalog{},
	}
	ts.router = NewRouter(Deps{
		Carts:     ts.carts,
		Orders:    ts.orders,
		Addresses: ts.addresses,
		Catalog:   ts.catalog,
		Health:    health.NewHandler(),
		Identity:  middleware.HeaderIdentity(),
		Logger:    logger.Discard(),
	})
	t.Cleanup(func() {
		ts.carts.AssertExpectations(t)
		ts.orders.AssertExpectations(t)
		ts.addresses.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(middleware.UserIDHeader, testUser)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// decodeData decodes the envelope's data field into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var env httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return *env.Error
}

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Items: []domain.LineItem{
			{ProductID: 7, Title: "Шоро Чалап 1л", UnitPrice: 8000, Quantity: 2, Category: "drinks", PackageSize: 1},
		},
		Totals: domain.Totals{TotalItems: 2, Subtotal: 16000, DeliveryCost: 50000, Total: 66000},
	}
}
