package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/depotd/depotd/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteServiceError maps domain errors to HTTP status codes in one place.
func WriteServiceError(w http.ResponseWriter, err error) {
	var (
		validation   *models.ValidationError
		notFound     *models.NotFoundError
		conflict     *models.ConflictError
		insufficient *models.InsufficientSharesError
		negative     *models.NegativeSharesError
		noQuote      *models.QuoteUnavailableError
	)
	switch {
	case errors.As(err, &validation):
		WriteErrorWithCode(w, http.StatusBadRequest, validation.Error(), "validation")
	case errors.As(err, &notFound):
		WriteErrorWithCode(w, http.StatusNotFound, notFound.Error(), "not_found")
	case errors.As(err, &conflict):
		WriteErrorWithCode(w, http.StatusConflict, conflict.Error(), "conflict")
	case errors.As(err, &insufficient):
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, insufficient.Error(), "insufficient_shares")
	case errors.As(err, &negative):
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, negative.Error(), "negative_shares")
	case errors.As(err, &noQuote):
		WriteErrorWithCode(w, http.StatusBadGateway, noQuote.Error(), "quote_unavailable")
	default:
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// PathParam extracts a path parameter from the URL path.
// For a pattern like /api/depots/{id}/stats, calling PathParam(r, "/api/depots/", "/stats")
// extracts the {id} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	// No suffix: return up to the next /
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}
