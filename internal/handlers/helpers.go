package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/services/jira"
	"github.com/ternarybob/mailticket/internal/services/ticket"
)

// maxBodyBytes bounds request bodies; captured webmail pages can be several megabytes
const maxBodyBytes = 32 << 20

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// DecodeJSON reads the request body into v. On failure a 400 response is written and false returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}

// PathID returns the path segment following prefix, e.g. "customfield_1" for
// "/api/fields/customfield_1" with prefix "/api/fields/"
func PathID(r *http.Request, prefix string) string {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if i := strings.Index(id, "/"); i >= 0 {
		id = id[:i]
	}
	return strings.TrimSpace(id)
}

// WriteServiceError maps service errors to status codes and user-facing messages
func WriteServiceError(w http.ResponseWriter, logger arbor.ILogger, err error) {
	var (
		validationErr *ticket.ValidationError
		apiErr        *jira.APIError
	)

	switch {
	case errors.As(err, &validationErr):
		WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status":  "error",
			"error":   validationErr.Error(),
			"missing": validationErr.Missing,
		})
	case errors.Is(err, ticket.ErrBusy):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, interfaces.ErrFieldNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		WriteJSON(w, http.StatusBadGateway, map[string]interface{}{
			"status":         "error",
			"error":          apiErr.UserMessage(),
			"upstreamStatus": apiErr.StatusCode,
		})
	default:
		logger.Error().Err(err).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
