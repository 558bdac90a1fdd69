package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	jerrors "github.com/mycelian/travelmap/internal/errors"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// StatusFor maps a journal error kind to an HTTP status.
func StatusFor(kind jerrors.Kind) int {
	switch kind {
	case jerrors.KindInvalid, jerrors.KindMediaReadFailure:
		return http.StatusBadRequest
	case jerrors.KindPlaceNotFound, jerrors.KindUnknownMemoryID:
		return http.StatusNotFound
	case jerrors.KindLookupUnavailable, jerrors.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteKindError writes err with the status and kind derived from its classification.
func WriteKindError(w http.ResponseWriter, err error) {
	kind := jerrors.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError {
		log.Error().Stack().Err(err).Msg("unclassified handler error")
	}
	WriteJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    status,
		Kind:    string(kind),
		Message: err.Error(),
	})
}
