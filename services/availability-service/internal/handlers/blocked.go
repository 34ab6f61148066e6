package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/bookavail/libs/auth"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/storage"
)

const (
	defaultBlockedLimit = 100
	maxBlockedLimit     = 500
)

type BlockedStore interface {
	Create(ctx context.Context, customerID string, start, end time.Time, reason string) (string, error)
	List(ctx context.Context, customerID string, since time.Time, limit int) ([]storage.BlockedRange, error)
	Delete(ctx context.Context, customerID, id string) error
}

// Invalidator drops cached availability after a customer's calendar changes.
type Invalidator interface {
	Invalidate(ctx context.Context, customerIDs ...string) error
}

type BlockedHandler struct {
	repo   BlockedStore
	cache  Invalidator
	logger *slog.Logger
	now    func() time.Time
}

func NewBlockedHandler(repo BlockedStore, cache Invalidator, logger *slog.Logger) *BlockedHandler {
	return &BlockedHandler{repo: repo, cache: cache, logger: logger, now: time.Now}
}

type createBlockedRequest struct {
	From   time.Time `json:"from" validate:"required"`
	To     time.Time `json:"to" validate:"required,gtfield=From"`
	Reason string    `json:"reason" validate:"max=200"`
}

type createBlockedResponse struct {
	ID string `json:"id"`
}

func (h *BlockedHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "")
		return
	}
	var req createBlockedRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := h.repo.Create(r.Context(), claims.CustomerID, req.From, req.To, strings.TrimSpace(req.Reason))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	invalidate(r.Context(), h.cache, h.logger, claims.CustomerID)
	writeJSON(w, http.StatusCreated, createBlockedResponse{ID: id})
}

// List returns blocked ranges ending after ?since (default now), oldest first.
func (h *BlockedHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	since := h.now()
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "must be RFC 3339", "since")
			return
		}
		since = t
	}
	limit := defaultBlockedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxBlockedLimit {
			writeError(w, r, http.StatusBadRequest, "must be between 1 and "+strconv.Itoa(maxBlockedLimit), "limit")
			return
		}
		limit = n
	}

	ranges, err := h.repo.List(r.Context(), claims.CustomerID, since, limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if ranges == nil {
		ranges = []storage.BlockedRange{}
	}
	writeJSON(w, http.StatusOK, ranges)
}

func (h *BlockedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), claims.CustomerID, id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	invalidate(r.Context(), h.cache, h.logger, claims.CustomerID)
	w.WriteHeader(http.StatusNoContent)
}

func invalidate(ctx context.Context, cache Invalidator, logger *slog.Logger, customerID string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, customerID); err != nil {
		logger.WarnContext(ctx, "availability cache invalidation failed", "customer_id", customerID, "err", err)
	}
}

