package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/pkg/httputil"
	"github.com/Fanatic033/shoro-market/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// UpdateQuantityRequest is the JSON request body for setting a line quantity.
// Zero or a negative value removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=100000"`
}

// ItemQuantityResponse answers GET /api/v1/cart/items/{productId}.
type ItemQuantityResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	InCart    bool  `json:"in_cart"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetCart(r.Context(), userID(r))
	h.respond(w, r, snap, err)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.ClearCart(r.Context(), userID(r))
	h.respond(w, r, snap, err)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	snap, err := h.service.AddItem(r.Context(), userID(r), req.ProductID)
	h.respond(w, r, snap, err)
}

// IncreaseItem handles POST /api/v1/cart/items/{productId}/increase
func (h *CartHandler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, h.service.IncreaseItem)
}

// DecreaseItem handles POST /api/v1/cart/items/{productId}/decrease
func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, h.service.DecreaseItem)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, h.service.RemoveItem)
}

// UpdateQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	snap, err := h.service.UpdateQuantity(r.Context(), userID(r), productID, *req.Quantity)
	h.respond(w, r, snap, err)
}

// ItemQuantity handles GET /api/v1/cart/items/{productId}
func (h *CartHandler) ItemQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	qty, inCart, err := h.service.ItemQuantity(r.Context(), userID(r), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, ItemQuantityResponse{
		ProductID: productID,
		Quantity:  qty,
		InCart:    inCart,
	})
}

func (h *CartHandler) withProduct(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID string, productID int64) (domain.Snapshot, error),
) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	snap, err := op(r.Context(), userID(r), productID)
	h.respond(w, r, snap, err)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, snap domain.Snapshot, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, snap)
}
