package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/docflow/pkg/docerr"
)

func TestWriteEngineErrorTypedKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"invalid type", docerr.InvalidType("x"), http.StatusBadRequest, "invalid_type"},
		{"access denied", docerr.AccessDenied("nope"), http.StatusUnauthorized, "access_denied"},
		{"not found", docerr.NotFound("gone"), http.StatusNotFound, "not_found"},
		{"conflict", docerr.AlreadyExists("dup"), http.StatusConflict, "already_exists"},
		{"undeletable", docerr.Undeletable("g"), http.StatusConflict, "undeletable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteEngineError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

// Untyped errors become generic 500s; internal detail stays out of responses.
func TestWriteEngineErrorUntyped(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteEngineError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body.Error)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestWriteSuccessAndCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteSuccess(rec, map[string]string{"k": "v"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"k":"v"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, WriteCreated(rec, map[string]string{"id": "x"}))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	WriteNoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	var dst map[string]interface{}
	assert.Error(t, DecodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a":"b"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "b", dst["a"])
}
