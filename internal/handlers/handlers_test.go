package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-orchestrator/internal/httpcall"
	"service-orchestrator/internal/orchestrator"
	"service-orchestrator/internal/services"
)

func newTestRouter(t *testing.T, backendPayload string) (*httptest.Server, http.Handler) {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(backendPayload))
	}))
	t.Cleanup(backend.Close)

	registry := services.NewRegistry()
	require.NoError(t, registry.Register(&services.ServiceConfig{Name: "backend", BaseURL: backend.URL}))

	executor := orchestrator.NewStepExecutor(registry, httpcall.NewClient(), nil, nil)
	router := NewRouter(orchestrator.New(executor, nil), registry, nil)

	return backend, router
}

func TestExecute(t *testing.T) {
	_, router := newTestRouter(t, `{"documents": [{"place_name": "A"}]}`)

	body := `{
		"steps": [{
			"id": "search", "service": "backend", "endpoint": "/v1/search",
			"response": {"extract": "documents", "fields": {"name": "place_name"}}
		}],
		"merge": {
			"mode": "concat",
			"wrap": {"success": true, "count": "_count", "data": "_results"}
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/pipelines/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, float64(1), result["count"])
}

func TestExecute_MalformedBody(t *testing.T) {
	_, router := newTestRouter(t, `{}`)

	req := httptest.NewRequest(http.MethodPost, "/pipelines/execute", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Contains(t, result, "error")
}

func TestExecute_EmptyPipeline(t *testing.T) {
	_, router := newTestRouter(t, `{}`)

	req := httptest.NewRequest(http.MethodPost, "/pipelines/execute", strings.NewReader(`{"steps": []}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecute_UnknownService(t *testing.T) {
	_, router := newTestRouter(t, `{}`)

	body := `{"steps": [{"id": "s", "service": "ghost", "endpoint": "/"}]}`
	req := httptest.NewRequest(http.MethodPost, "/pipelines/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	_, router := newTestRouter(t, `{}`)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, []interface{}{"backend"}, result["services"])
}
