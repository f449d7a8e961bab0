package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-api/internal/http/middleware"
	"github.com/aanand-mishra/students-api/internal/storage/orm"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := orm.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reg := prometheus.NewRegistry()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := httptest.NewServer(New(store, log, reg, reg))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, string, http.Header) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b), resp.Header
}

func TestScenario(t *testing.T) {
	srv := newTestServer(t)

	code, body, _ := call(t, srv, http.MethodPost, "/students/", `{"name":"Ana","age":20}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.JSONEq(t, `{"id":1,"name":"Ana","age":20}`, body)

	code, body, _ = call(t, srv, http.MethodPost, "/students/", `{"name":"Luis","age":22}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.JSONEq(t, `{"id":2,"name":"Luis","age":22}`, body)

	code, body, _ = call(t, srv, http.MethodGet, "/students/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"id":1,"name":"Ana","age":20},{"id":2,"name":"Luis","age":22}]`, body)

	code, body, _ = call(t, srv, http.MethodPut, "/students/1", `{"age":21}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"id":1,"name":"Ana","age":21}`, body)

	code, body, _ = call(t, srv, http.MethodDelete, "/students/2", "")
	assert.Equal(t, http.StatusNoContent, code)
	assert.Empty(t, body)

	code, body, _ = call(t, srv, http.MethodGet, "/students/2", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"status":"error","error":"student not found"}`, body)
}

func TestCollectionWithoutTrailingSlash(t *testing.T) {
	srv := newTestServer(t)

	code, _, _ := call(t, srv, http.MethodPost, "/students", `{"name":"Ana","age":20}`)
	assert.Equal(t, http.StatusCreated, code)

	code, body, _ := call(t, srv, http.MethodGet, "/students", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"id":1,"name":"Ana","age":20}]`, body)
}

func TestSystemEndpoints(t *testing.T) {
	srv := newTestServer(t)

	code, body, hdr := call(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"message"`)
	assert.NotEmpty(t, hdr.Get(middleware.RequestIDHeader))

	code, body, _ = call(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	call(t, srv, http.MethodGet, "/students/99", "")

	code, body, _ := call(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `students_http_requests_total{method="GET",route="/students/{id}",status="404"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	code, _, _ := call(t, srv, http.MethodGet, "/teachers/", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = call(t, srv, http.MethodPatch, "/students/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}
