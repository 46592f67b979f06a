package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Fanatic033/shoro-market/internal/service"
	"github.com/Fanatic033/shoro-market/pkg/httputil"
	"github.com/Fanatic033/shoro-market/pkg/validator"
)

// AddressHandler handles the customer's address book endpoints.
type AddressHandler struct {
	service AddressService
	logger  *slog.Logger
}

// NewAddressHandler creates a new address HTTP handler.
func NewAddressHandler(svc AddressService, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{service: svc, logger: logger}
}

// ListAddresses handles GET /api/v1/addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.service.List(r.Context(), userID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, addresses)
}

// AddAddress handles POST /api/v1/addresses
func (h *AddressHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var in service.AddressInput
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	a, err := h.service.Add(r.Context(), userID(r), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, a)
}

// DefaultAddress handles GET /api/v1/addresses/default
func (h *AddressHandler) DefaultAddress(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Default(r.Context(), userID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, a)
}

// UpdateAddress handles PATCH /api/v1/addresses/{id}
func (h *AddressHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var patch service.AddressPatch
	if err := validator.DecodeAndValidate(r, &patch); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	a, err := h.service.Update(r.Context(), userID(r), id.String(), patch)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, a)
}

// RemoveAddress handles DELETE /api/v1/addresses/{id}
func (h *AddressHandler) RemoveAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), userID(r), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultAddress handles POST /api/v1/addresses/{id}/default
func (h *AddressHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	a, err := h.service.SetDefault(r.Context(), userID(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, a)
}
