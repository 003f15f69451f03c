// Package api implements the REST surface of spec.md §6: a gorilla/mux
// router over the query, auth, validate, and dedup services, with guest
// dashboard coercion and JWT bearer authentication at the boundary.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
)

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// errorBody is the JSON shape every error response carries.
type errorBody struct {
	Error string `json:"error"`
}

// writeError maps err's apperr.Kind to an HTTP status, per spec.md §7 (only
// the REST boundary translates a kind into a status code).
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInternal:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorBody{Error: err.Error()})
}

// decodeJSON parses the request body into v, returning a validation-kind
// error on malformed JSON.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("malformed request body")
	}

	return nil
}
