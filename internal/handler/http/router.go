package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Fanatic033/shoro-market/pkg/health"
	"github.com/Fanatic033/shoro-market/pkg/middleware"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	Carts     CartService
	Orders    OrderService
	Addresses AddressService
	Catalog   ProductCatalog
	Health    *health.Handler
	Identity  func(http.Handler) http.Handler
	Logger    *slog.Logger

	// CheckoutLimit throttles order submission; nil disables it.
	CheckoutLimit func(http.Handler) http.Handler
}

// NewRouter creates a chi router with all service routes registered.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.PrometheusMetrics("shoro_market"))
	r.Use(middleware.Tracing("shoro-market"))
	r.Use(middleware.RequestLogger(d.Logger))

	// Health check endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	catalogHandler := NewCatalogHandler(d.Catalog, d.Logger)
	cartHandler := NewCartHandler(d.Carts, d.Logger)
	orderHandler := NewOrderHandler(d.Orders, d.Logger)
	addressHandler := NewAddressHandler(d.Addresses, d.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/catalog/products", catalogHandler.ListProducts)
		r.Get("/catalog/categories", catalogHandler.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(d.Identity)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)

				r.Post("/items", cartHandler.AddItem)
				r.Get("/items/{productId}", cartHandler.ItemQuantity)
				r.Put("/items/{productId}", cartHandler.UpdateQuantity)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
				r.Post("/items/{productId}/increase", cartHandler.IncreaseItem)
				r.Post("/items/{productId}/decrease", cartHandler.DecreaseItem)
			})

			if d.CheckoutLimit != nil {
				r.With(d.CheckoutLimit).Post("/checkout", orderHandler.Checkout)
			} else {
				r.Post("/checkout", orderHandler.Checkout)
			}

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.ListOrders)
				r.Get("/{id}", orderHandler.GetOrder)
				r.Post("/{id}/reorder", orderHandler.Reorder)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", addressHandler.ListAddresses)
				r.Post("/", addressHandler.AddAddress)
				r.Get("/default", addressHandler.DefaultAddress)
				r.Patch("/{id}", addressHandler.UpdateAddress)
				r.Delete("/{id}", addressHandler.RemoveAddress)
				r.Post("/{id}/default", addressHandler.SetDefaultAddress)
			})
		})
	})

	return r
}
