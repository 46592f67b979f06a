package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Fanatic033/shoro-market/internal/service"
	"github.com/Fanatic033/shoro-market/pkg/httputil"
	"github.com/Fanatic033/shoro-market/pkg/pagination"
	"github.com/Fanatic033/shoro-market/pkg/validator"
)

// defaultOrdersPerPage is the history page size when ?per_page is absent.
const defaultOrdersPerPage = 20

// OrderHandler handles checkout and order history endpoints.
type OrderHandler struct {
	service OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// Checkout handles POST /api/v1/checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var input service.CheckoutInput
	if err := validator.Decode(r, &input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.Checkout(r.Context(), userID(r), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r, defaultOrdersPerPage)

	result, err := h.service.ListOrders(r.Context(), userID(r), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), userID(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// Reorder handles POST /api/v1/orders/{id}/reorder. It answers with the
// cart after the order's lines were merged into it.
func (h *OrderHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	snap, err := h.service.Reorder(r.Context(), userID(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, snap)
}
