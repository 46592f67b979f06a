package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/service"
	"github.com/Fanatic033/shoro-market/pkg/httputil"
	"github.com/Fanatic033/shoro-market/pkg/middleware"
	"github.com/Fanatic033/shoro-market/pkg/pagination"
)

// CartService is the cart surface the handlers drive.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.Snapshot, error)
	AddItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error)
	IncreaseItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error)
	DecreaseItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error)
	UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) (domain.Snapshot, error)
	RemoveItem(ctx context.Context, userID string, productID int64) (domain.Snapshot, error)
	ItemQuantity(ctx context.Context, userID string, productID int64) (int, bool, error)
	ClearCart(ctx context.Context, userID string) (domain.Snapshot, error)
}

// OrderService is the checkout and history surface the handlers drive.
type OrderService interface {
	Checkout(ctx context.Context, userID string, input service.CheckoutInput) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string, page pagination.Params) (pagination.Result[domain.Order], error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	Reorder(ctx context.Context, userID, orderID string) (domain.Snapshot, error)
}

// AddressService is the address book surface the handlers drive.
type AddressService interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Add(ctx context.Context, userID string, in service.AddressInput) (*domain.Address, error)
	Update(ctx context.Context, userID, id string, patch service.AddressPatch) (*domain.Address, error)
	Remove(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) (*domain.Address, error)
	Default(ctx context.Context, userID string) (*domain.Address, error)
}

// ProductCatalog lists the cached catalog.
type ProductCatalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// userID returns the identity mounted by the auth middleware.
func userID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// ContentTypeJSON rejects request bodies that are not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
