package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/bookavail/libs/auth"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
)

type ScheduleWriter interface {
	UpsertSchedule(ctx context.Context, s availability.Schedule) error
}

type ScheduleHandler struct {
	repo   ScheduleWriter
	cache  Invalidator
	logger *slog.Logger
}

func NewScheduleHandler(repo ScheduleWriter, cache Invalidator, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{repo: repo, cache: cache, logger: logger}
}

// Put replaces the schedule with the id in the path. The owner is always the caller;
// a schedule owned by another customer answers 404.
func (h *ScheduleHandler) Put(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "")
		return
	}
	var s availability.Schedule
	if !decode(w, r, &s) {
		return
	}
	s.ID = chi.URLParam(r, "id")
	s.CustomerID = claims.CustomerID

	s, err := availability.ValidateSchedule(s)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err := h.repo.UpsertSchedule(r.Context(), s); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	invalidate(r.Context(), h.cache, h.logger, claims.CustomerID)
	writeJSON(w, http.StatusOK, s)
}
