package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
)

type Generator interface {
	Generate(ctx context.Context, req availability.Request) ([]availability.AvailabilityDay, error)
}

type AvailabilityHandler struct {
	svc    Generator
	logger *slog.Logger
}

func NewAvailabilityHandler(svc Generator, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, logger: logger}
}

type availabilityRequest struct {
	CustomerID string            `json:"customerId"`
	ProductIDs []string          `json:"productIds" validate:"required,min=1,dive,required"`
	OptionIDs  map[string]string `json:"optionIds"`
	FromDate   string            `json:"fromDate"`
	ShippingID string            `json:"shippingId"`
}

func (req availabilityRequest) toService() availability.Request {
	return availability.Request{
		CustomerID: strings.TrimSpace(req.CustomerID),
		ProductIDs: req.ProductIDs,
		OptionIDs:  req.OptionIDs,
		FromDate:   strings.TrimSpace(req.FromDate),
		ShippingID: strings.TrimSpace(req.ShippingID),
	}
}

// ForUser serves the storefront widget, which only knows the customer's username.
func (h *AvailabilityHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	var body availabilityRequest
	if !decode(w, r, &body) {
		return
	}
	req := body.toService()
	req.CustomerID = ""
	req.Username = strings.TrimSpace(chi.URLParam(r, "username"))
	h.generate(w, r, req)
}

func (h *AvailabilityHandler) ForCustomer(w http.ResponseWriter, r *http.Request) {
	var body availabilityRequest
	if !decode(w, r, &body) {
		return
	}
	h.generate(w, r, body.toService())
}

func (h *AvailabilityHandler) generate(w http.ResponseWriter, r *http.Request, req availability.Request) {
	days, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if days == nil {
		days = []availability.AvailabilityDay{}
	}
	writeJSON(w, http.StatusOK, days)
}
