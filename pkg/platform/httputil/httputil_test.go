package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "investgate/pkg/domain-errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeBadRequest, http.StatusBadRequest},
		{dErrors.CodeInvalidInput, http.StatusBadRequest},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeConflict, http.StatusConflict},
		{dErrors.CodeRejected, http.StatusUnprocessableEntity},
		{dErrors.CodeInternal, http.StatusInternalServerError},
		{dErrors.CodeUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tc.code, "something happened"))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, string(tc.code), decode(t, w)["error"])
		})
	}
}

func TestWriteError_InternalOmitsDescription(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeInternal, "pgx: connection refused"))

	body := decode(t, w)
	assert.Equal(t, string(dErrors.CodeInternal), body["error"])
	assert.NotContains(t, body, "error_description")
}

func TestWriteError_DomainMessageSurfaces(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeConflict, "order already confirmed"))

	body := decode(t, w)
	assert.Equal(t, "order already confirmed", body["error_description"])
}

func TestWriteError_WrappedDomainErrorKeepsItsCode(t *testing.T) {
	w := httptest.NewRecorder()
	wrapped := fmt.Errorf("handling request: %w", dErrors.New(dErrors.CodeNotFound, "kyc flow not found"))
	WriteError(w, wrapped)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "kyc flow not found", decode(t, w)["error_description"])
}

func TestWriteError_PlainErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, decode(t, w), "error_description")
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
}
