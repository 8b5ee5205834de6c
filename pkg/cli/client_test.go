package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsIdentityHeaders(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "emp@example.com", "auditor,viewer", true)
	var out map[string]interface{}
	require.NoError(t, client.do(http.MethodGet, "/api/v1/docs/request/d1", nil, &out))

	require.NotNil(t, got)
	assert.Equal(t, "emp@example.com", got.Header.Get("X-User-Email"))
	assert.Equal(t, "auditor,viewer", got.Header.Get("X-User-Roles"))
	assert.Equal(t, "true", got.Header.Get("X-User-Admin"))
	assert.Equal(t, true, out["ok"])
}

func TestClientOmitsEmptyOptionalHeaders(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "emp@example.com", "", false)
	require.NoError(t, client.do(http.MethodPost, "/api/v1/admin/reset", nil, nil))

	require.NotNil(t, got)
	assert.Empty(t, got.Header.Get("X-User-Roles"))
	assert.Empty(t, got.Header.Get("X-User-Admin"))
}

func TestClientSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"caller may not read this document","kind":"access_denied"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "emp@example.com", "", false)
	err := client.do(http.MethodGet, "/api/v1/docs/request/d1", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
	assert.Contains(t, err.Error(), "caller may not read this document")
}

func TestClientHandlesNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "emp@example.com", "", false)
	err := client.do(http.MethodGet, "/api/v1/docs/request/d1", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields(`{"title":"x","count":2}`)
	require.NoError(t, err)
	assert.Equal(t, "x", fields["title"])

	_, err = parseFields("")
	assert.Error(t, err)

	_, err = parseFields("not json")
	assert.Error(t, err)
}
