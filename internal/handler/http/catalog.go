package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Fanatic033/shoro-market/internal/catalog"
	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
	"github.com/Fanatic033/shoro-market/pkg/httputil"
)

// CatalogHandler serves the cached product catalog.
type CatalogHandler struct {
	catalog ProductCatalog
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(c ProductCatalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

// ListProducts handles GET /api/v1/catalog/products?category=&q=&sort=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := catalog.Query{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
		Sort:     r.URL.Query().Get("sort"),
	}
	if q.Sort != "" && !catalog.IsValidSort(q.Sort) {
		httputil.WriteError(w, r, apperrors.InvalidInput("unknown sort: "+q.Sort), h.logger)
		return
	}

	products, err := h.catalog.Products(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, catalog.Browse(products, q))
}

// ListCategories handles GET /api/v1/catalog/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, catalog.Categories(products))
}
