package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/bookavail/libs/httpx"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg, field string) {
	writeJSON(w, status, errorResponse{Error: msg, Field: field, RequestID: httpx.RequestIDFromContext(r.Context())})
}

// writeServiceError maps domain errors to status codes. Unexpected errors are logged and
// answered without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *availability.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Message, verr.Field)
	case errors.Is(err, availability.ErrValidation):
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, availability.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error(), "")
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		writeError(w, r, http.StatusInternalServerError, "internal error", "")
	}
}

// decode reads a JSON body and runs struct validation on it.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large", "")
			return false
		}
		writeError(w, r, http.StatusBadRequest, "invalid json body", "")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			f := fields[0]
			writeError(w, r, http.StatusBadRequest, "failed on "+f.Tag(), f.Field())
			return false
		}
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
		return false
	}
	return true
}
