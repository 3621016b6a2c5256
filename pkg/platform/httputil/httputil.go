// Package httputil translates domain errors into HTTP responses so handlers
// do not repeat status mapping logic.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "investgate/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:   http.StatusBadRequest,
	dErrors.CodeInvalidInput: http.StatusBadRequest,
	dErrors.CodeUnauthorized: http.StatusUnauthorized,
	dErrors.CodeNotFound:     http.StatusNotFound,
	dErrors.CodeConflict:     http.StatusConflict,
	dErrors.CodeRejected:     http.StatusUnprocessableEntity,
	dErrors.CodeInternal:     http.StatusInternalServerError,
	dErrors.CodeUnavailable:  http.StatusServiceUnavailable,
}

// WriteError writes a JSON error body for the given error. Internal errors
// omit the description so implementation details never reach clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) && de.Message != "" {
			body["error_description"] = de.Message
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
