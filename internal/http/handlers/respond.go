package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/flow"
	"github.com/payland/gateway/internal/view"
)

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// respondServiceError maps flow, view and upstream errors onto HTTP responses.
// Every failure resolves to an inline message; none is fatal.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *flow.ValidationError
	if errors.As(err, &verr) {
		respondWithError(w, http.StatusBadRequest, verr.Message)
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		respondWithError(w, status, apiErr.Message)
		return
	}

	switch {
	case errors.Is(err, backend.ErrUnexpected):
		respondWithError(w, http.StatusBadGateway, backend.ErrUnexpected.Error())
	case errors.Is(err, flow.ErrBusy):
		respondWithError(w, http.StatusConflict, "submission already in progress")
	case errors.Is(err, flow.ErrWrongStep):
		respondWithError(w, http.StatusConflict, "operation not valid in current step")
	case errors.Is(err, flow.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "flow not found")
	case errors.Is(err, view.ErrRowNotFound):
		respondWithError(w, http.StatusNotFound, "not found")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody decodes a bounded JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
