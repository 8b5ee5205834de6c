package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiRecorder is a fake docflow server recording the last request.
type apiRecorder struct {
	method string
	path   string
	query  string
	body   map[string]interface{}
}

func newAPIServer(t *testing.T, status int, response string) (*apiRecorder, *httptest.Server) {
	t.Helper()
	rec := &apiRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.body = nil
		if r.ContentLength > 0 {
			json.NewDecoder(r.Body).Decode(&rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if response != "" {
			w.Write([]byte(response))
		}
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func TestGetCommand(t *testing.T) {
	rec, srv := newAPIServer(t, http.StatusOK, `{"id":"d1","state":"requested"}`)

	err := runGet([]string{"-type", "request", "-id", "d1", "-server", srv.URL, "-email", "emp@example.com"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/v1/docs/request/d1", rec.path)
}

func TestGetCommandRequiresTypeAndID(t *testing.T) {
	err := runGet([]string{"-type", "request", "-email", "emp@example.com"})
	assert.Error(t, err)
}

func TestCreateCommand(t *testing.T) {
	rec, srv := newAPIServer(t, http.StatusCreated, `{"id":"d1"}`)

	err := runCreate([]string{
		"-type", "request",
		"-data", `{"title":"expense report"}`,
		"-server", srv.URL,
		"-email", "emp@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/docs/request", rec.path)
	assert.Equal(t, "expense report", rec.body["title"])
}

func TestUpdateCommandAddsStateToPatch(t *testing.T) {
	rec, srv := newAPIServer(t, http.StatusOK, `{"id":"d1","state":"approved"}`)

	err := runUpdate([]string{
		"-type", "request",
		"-id", "d1",
		"-state", "approved",
		"-server", srv.URL,
		"-email", "boss@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/v1/docs/request/d1", rec.path)
	assert.Equal(t, "approved", rec.body["state"])
}

func TestUpdateCommandRequiresAPatch(t *testing.T) {
	err := runUpdate([]string{"-type", "request", "-id", "d1", "-email", "emp@example.com"})
	assert.Error(t, err)
}

func TestQueryCommandBuildsFilterParams(t *testing.T) {
	rec, srv := newAPIServer(t, http.StatusOK, `{"items":[],"total":0}`)

	err := runQuery([]string{
		"-type", "request",
		"-filter", "state=requested,owner=emp@example.com",
		"-fields", "title,state",
		"-server", srv.URL,
		"-email", "emp@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/docs/request", rec.path)
	assert.Contains(t, rec.query, "state=requested")
	assert.Contains(t, rec.query, "_fields=title%2Cstate")
}

func TestDeleteCommand(t *testing.T) {
	rec, srv := newAPIServer(t, http.StatusOK, `{"id":"d1"}`)

	err := runDelete([]string{"-type", "request", "-id", "d1", "-server", srv.URL, "-email", "emp@example.com"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/v1/docs/request/d1", rec.path)
}

func TestActionCommand(t *testing.T) {
	rec, srv := newAPIServer(t, http.StatusOK, `{"status":"pinged"}`)

	err := runAction([]string{
		"-type", "request",
		"-id", "d1",
		"-args", `{"reason":"nudge"}`,
		"-server", srv.URL,
		"-email", "emp@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/docs/request/d1/action", rec.path)
	assert.Equal(t, "nudge", rec.body["reason"])
}

func TestGroupsCommand(t *testing.T) {
	rec, srv := newAPIServer(t, http.StatusOK, `[]`)

	err := runGroups([]string{"list", "-server", srv.URL, "-email", "admin@example.com", "-admin"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/groups", rec.path)

	err = runGroups([]string{"-server", srv.URL, "-email", "admin@example.com"})
	assert.Error(t, err, "the action must come before the flags")

	err = runGroups([]string{"promote", "-server", srv.URL, "-email", "admin@example.com"})
	assert.Error(t, err)
}

func TestResetCommandRequiresConfirmation(t *testing.T) {
	rec, srv := newAPIServer(t, http.StatusNoContent, "")

	err := runReset([]string{"-server", srv.URL, "-email", "admin@example.com", "-admin"})
	require.Error(t, err)
	assert.Empty(t, rec.path, "no request without -yes")

	err = runReset([]string{"-yes", "-server", srv.URL, "-email", "admin@example.com", "-admin"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/admin/reset", rec.path)
}

func TestExportImportRoundTrip(t *testing.T) {
	rec, srv := newAPIServer(t, http.StatusOK, `{"request":[{"id":"d1","state":"requested"}]}`)
	dir := t.TempDir()
	out := filepath.Join(dir, "export.json")

	err := runExport([]string{"-out", out, "-server", srv.URL, "-email", "admin@example.com", "-admin"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/admin/export", rec.path)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"d1"`)

	err = runImport([]string{"-file", out, "-server", srv.URL, "-email", "admin@example.com", "-admin"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/admin/import", rec.path)
	assert.Contains(t, rec.body, "request")
}

func TestCommandsRequireEmail(t *testing.T) {
	_, srv := newAPIServer(t, http.StatusOK, `{}`)

	err := runGet([]string{"-type", "request", "-id", "d1", "-server", srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}
