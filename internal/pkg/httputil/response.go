// Package httputil provides the JSON response and request helpers shared
// by all API handlers, including the mapping from service errors to HTTP
// status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ignite/experiment-engine/internal/service/assignment"
	"github.com/ignite/experiment-engine/internal/service/event"
	"github.com/ignite/experiment-engine/internal/service/experiment"
	"github.com/ignite/experiment-engine/internal/service/results"
)

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes a JSON response with the given status code. Content-Type is
// set automatically; encode failures are logged, not surfaced.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[httputil] JSON encode error: %v", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 response with the given data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error writes a JSON error response with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// ServiceError maps a service-layer error to its HTTP status and writes
// the response. Unknown errors become 500 with a generic body so internal
// details never reach the client.
func ServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, experiment.ErrNotFound) || errors.Is(err, assignment.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, experiment.ErrNameTaken):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, experiment.ErrInvalidTransition):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, assignment.ErrConflict):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, experiment.ErrInvalidInput),
		errors.Is(err, experiment.ErrInvalidSplit),
		errors.Is(err, event.ErrMissingUserID),
		errors.Is(err, event.ErrMissingType),
		errors.Is(err, results.ErrInvalidWindow):
		Error(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[httputil] internal error: %v", err)
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// Decode reads JSON from the request body into dst. Returns false and
// writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
