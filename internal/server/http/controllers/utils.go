package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rzbill/sharedq/internal/filter"
	"github.com/rzbill/sharedq/internal/namespace"
	"github.com/rzbill/sharedq/internal/peersync"
	"github.com/rzbill/sharedq/internal/sharedqueue"
)

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeNoContent writes a 204 No Content response.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeErr maps a domain error to a status code.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, namespace.ErrInvalidName),
		errors.Is(err, filter.ErrInvalidExpression),
		peersync.IsMalformed(err):
		return http.StatusBadRequest
	case errors.Is(err, namespace.ErrLimit),
		errors.Is(err, sharedqueue.ErrCounterExhausted):
		return http.StatusConflict
	case errors.Is(err, sharedqueue.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
