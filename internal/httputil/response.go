package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"chirpfeed/internal/model"
)

// ErrorResponse represents the standard error response format:
// {"error": "Human readable message"}
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent
			log.Printf("[httputil] encode response: %v", err)
		}
	}
}

// WriteError writes an error response with the given status code
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// Common error response helpers

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a 403 Forbidden error
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteConflict writes a 409 Conflict error
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteServiceError maps a service error onto its status code. Domain errors
// carry their own message; anything else is logged under op and reported
// as a generic internal error.
func WriteServiceError(w http.ResponseWriter, op string, err error) {
	msg, ok := model.Message(err)
	switch {
	case ok && errors.Is(err, model.ErrValidation):
		WriteBadRequest(w, msg)
	case ok && errors.Is(err, model.ErrNotFound):
		WriteNotFound(w, msg)
	case ok && errors.Is(err, model.ErrForbidden):
		WriteForbidden(w, msg)
	case ok && errors.Is(err, model.ErrConflict):
		WriteConflict(w, msg)
	default:
		log.Printf("[ERROR] %s: %v", op, err)
		WriteInternalError(w, "Internal server error")
	}
}
