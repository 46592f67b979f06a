package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/time/rate"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/service"
	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
	"github.com/Fanatic033/shoro-market/pkg/health"
	"github.com/Fanatic033/shoro-market/pkg/logger"
	"github.com/Fanatic033/shoro-market/pkg/middleware"
	"github.com/Fanatic033/shoro-market/pkg/pagination"
)

const testOrderID = "550e8400-e29b-41d4-a716-446655440000"

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:           testOrderID,
		UserID:       testUser,
		RemoteRef:    "88231",
		Customer:     domain.Customer{Name: "Айбек", Phone: "+996555123456", Address: "Бишкек, Чуй 1"},
		DeliveryDate: "2026-10-20",
		Payment:      domain.PaymentCash,
		Items:        []domain.OrderLine{{ProductID: 7, Title: "Шоро Чалап 1л", Price: 8000, Quantity: 2}},
		Subtotal:     16000,
		DeliveryCost: 50000,
		Total:        66000,
		CreatedAt:    time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestCheckout_Success(t *testing.T) {
	ts := newTestServer(t)
	input := service.CheckoutInput{
		CustomerName:    "Айбек",
		ContactPhone:    "+996555123456",
		DeliveryAddress: "Бишкек, Чуй 1",
		DeliveryDate:    "2026-10-20",
		Payment:         "наличные",
	}
	ts.orders.On("Checkout", mock.Anything, testUser, input).Return(sampleOrder(), nil)

	rec := ts.do(http.MethodPost, "/api/v1/checkout", `{
		"customer_name": "Айбек",
		"contact_phone": "+996555123456",
		"delivery_address": "Бишкек, Чуй 1",
		"delivery_date": "2026-10-20",
		"payment": "наличные"
	}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var order domain.Order
	decodeData(t, rec, &order)
	assert.Equal(t, "88231", order.RemoteRef)
	assert.Equal(t, int64(66000), order.Total)
}

func TestCheckout_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"empty cart", apperrors.InvalidInput("cart is empty"), http.StatusBadRequest},
		{"rejected", apperrors.Upstream("order rejected", assert.AnError), http.StatusBadGateway},
		{"store down", apperrors.Unavailable("cart store", assert.AnError), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.orders.On("Checkout", mock.Anything, testUser, mock.Anything).Return(nil, tt.err)

			rec := ts.do(http.MethodPost, "/api/v1/checkout", `{"payment":"наличные"}`)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestListOrders_Paging(t *testing.T) {
	ts := newTestServer(t)
	page := pagination.NewParams(2, 5, defaultOrdersPerPage)
	result := pagination.NewResult([]domain.Order{*sampleOrder()}, 6, page)
	ts.orders.On("ListOrders", mock.Anything, testUser, page).Return(result, nil)

	rec := ts.do(http.MethodGet, "/api/v1/orders?page=2&per_page=5", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_count":6`)
	assert.Contains(t, rec.Body.String(), `"has_prev":true`)
}

func TestGetOrder(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.On("GetOrder", mock.Anything, testUser, testOrderID).Return(sampleOrder(), nil)

	rec := ts.do(http.MethodGet, "/api/v1/orders/"+testOrderID, "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.On("GetOrder", mock.Anything, testUser, testOrderID).
		Return(nil, apperrors.NotFound("order", testOrderID))

	rec := ts.do(http.MethodGet, "/api/v1/orders/"+testOrderID, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrder_InvalidID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/orders/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReorder(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.On("Reorder", mock.Anything, testUser, testOrderID).Return(sampleSnapshot(), nil)

	rec := ts.do(http.MethodPost, "/api/v1/orders/"+testOrderID+"/reorder", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var snap domain.Snapshot
	decodeData(t, rec, &snap)
	assert.Equal(t, 2, snap.TotalItems)
}

func TestCheckout_RateLimited(t *testing.T) {
	orders := &mockOrderService{}
	orders.On("Checkout", mock.Anything, testUser, mock.Anything).Return(sampleOrder(), nil).Once()
	router := NewRouter(Deps{
		Carts:         &mockCartService{},
		Orders:        orders,
		Catalog:       &stubCatalog{},
		Health:        health.NewHandler(),
		Identity:      middleware.HeaderIdentity(),
		Logger:        logger.Discard(),
		CheckoutLimit: middleware.RateLimit(rate.Limit(0.001), 1, 10, middleware.ByUserID, logger.Discard()),
	})

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"payment":"наличные"}`))
		req.Header.Set(middleware.UserIDHeader, testUser)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
	orders.AssertExpectations(t)
}
