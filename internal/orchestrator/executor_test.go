package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-orchestrator/internal/common/cache"
	"service-orchestrator/internal/httpcall"
	"service-orchestrator/internal/services"
)

func TestFillEndpoint(t *testing.T) {
	params := map[string]interface{}{
		"id":     float64(42),
		"format": "json",
		"q":      "pasta",
	}

	path, query := fillEndpoint("/places/{id}.{format}", params)

	assert.Equal(t, "/places/42.json", path)
	assert.Equal(t, map[string]string{"q": "pasta"}, query, "consumed path params leave the query")
}

func TestFillEndpoint_NoPlaceholders(t *testing.T) {
	path, query := fillEndpoint("/search", map[string]interface{}{"q": "x"})
	assert.Equal(t, "/search", path)
	assert.Equal(t, map[string]string{"q": "x"}, query)
}

func TestExecute_DefaultParamsAreOverridable(t *testing.T) {
	var captured map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	registry := newTestRegistry(t, &services.ServiceConfig{Name: "svc", BaseURL: server.URL})
	executor := NewStepExecutor(registry, httpcall.NewClient(), nil, nil)

	step := &PipelineStep{
		ID:            "s",
		Service:       "svc",
		Endpoint:      "/search",
		DefaultParams: map[string]interface{}{"size": float64(10), "sort": "accuracy"},
		Params:        map[string]interface{}{"size": float64(3)},
	}

	outcome := executor.Execute(context.Background(), step, 0, nil, nil)

	require.True(t, outcome.Success)
	assert.Equal(t, []string{"3"}, captured["size"])
	assert.Equal(t, []string{"accuracy"}, captured["sort"])
}

func TestExecute_ErrorPayloadIsFailure(t *testing.T) {
	server := jsonServer(t, `{"error": "quota exceeded"}`)
	registry := newTestRegistry(t, &services.ServiceConfig{Name: "svc", BaseURL: server.URL})
	executor := NewStepExecutor(registry, httpcall.NewClient(), nil, nil)

	step := &PipelineStep{ID: "s", Service: "svc", Endpoint: "/"}
	outcome := executor.Execute(context.Background(), step, 0, nil, nil)

	assert.False(t, outcome.Success, "a 200 carrying an error key is still a failure")
	assert.Equal(t, map[string]interface{}{"error": "quota exceeded"}, outcome.Data)
}

func TestExecute_TransformAppliesOnSuccessOnly(t *testing.T) {
	server := jsonServer(t, `{"documents": [{"place_name": "A"}]}`)
	registry := newTestRegistry(t, &services.ServiceConfig{Name: "svc", BaseURL: server.URL})
	executor := NewStepExecutor(registry, httpcall.NewClient(), nil, nil)

	steps := decodeSteps(t, `[{
		"id": "s", "service": "svc", "endpoint": "/",
		"response": {"extract": "documents", "first": true, "fields": {"name": "place_name"}}
	}]`)

	outcome := executor.Execute(context.Background(), steps[0], 0, nil, nil)

	require.True(t, outcome.Success)
	assert.Equal(t, map[string]interface{}{"name": "A"}, outcome.Data)
}

func TestExecute_CacheTTLServesRepeatCalls(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		_, _ = w.Write([]byte(`{"n": 1}`))
	}))
	t.Cleanup(server.Close)

	registry := newTestRegistry(t, &services.ServiceConfig{Name: "svc", BaseURL: server.URL})
	responseCache := cache.NewLocalCache(time.Minute, time.Minute)
	executor := NewStepExecutor(registry, httpcall.NewClient(), responseCache, nil)

	step := &PipelineStep{ID: "s", Service: "svc", Endpoint: "/", CacheTTL: "1m"}

	first := executor.Execute(context.Background(), step, 0, nil, nil)
	second := executor.Execute(context.Background(), step, 0, nil, nil)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "second call is served from cache")
}

func TestExecute_UnknownServiceFailsGracefully(t *testing.T) {
	executor := NewStepExecutor(services.NewRegistry(), httpcall.NewClient(), nil, nil)
	step := &PipelineStep{ID: "s", Service: "ghost", Endpoint: "/"}

	outcome := executor.Execute(context.Background(), step, 0, nil, nil)

	assert.False(t, outcome.Success)
	assert.True(t, isErrorPayload(outcome.Data))
}

func TestStepTimeout(t *testing.T) {
	svc := &services.ServiceConfig{Name: "svc", BaseURL: "http://x", Timeout: "5s"}

	assert.Equal(t, 5*time.Second, stepTimeout(&PipelineStep{}, svc))
	assert.Equal(t, 2*time.Second, stepTimeout(&PipelineStep{Timeout: "2s"}, svc))
	assert.Equal(t, 5*time.Second, stepTimeout(&PipelineStep{Timeout: "nope"}, svc))
	assert.Equal(t, defaultStepTimeout, stepTimeout(&PipelineStep{}, &services.ServiceConfig{Name: "bare", BaseURL: "http://x"}))
}

func TestRetryConfig(t *testing.T) {
	svc := &services.ServiceConfig{
		Name:    "svc",
		BaseURL: "http://x",
		Retry:   &services.RetryPolicy{MaxAttempts: 5, InitialDelay: "100ms"},
	}

	cfg := retryConfig(&PipelineStep{}, svc)
	require.NotNil(t, cfg)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)

	override := retryConfig(&PipelineStep{Retry: &services.RetryPolicy{MaxAttempts: 1}}, svc)
	require.NotNil(t, override)
	assert.Equal(t, 1, override.MaxAttempts)

	assert.Nil(t, retryConfig(&PipelineStep{}, &services.ServiceConfig{Name: "bare", BaseURL: "http://x"}))
}
