package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/config"
	"github.com/BaSui01/gtmflow/workflow"
)

// newTestServer 内存存储 + 无延迟 Mock 执行器
func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.MetricsPort = 0
	cfg.Server.RateLimitRPS = 0
	cfg.Execution.Mode = "mock"
	cfg.Execution.MockDelayScale = 0
	cfg.AutoSave.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	reg := prometheus.NewRegistry()
	app, err := newApp(context.Background(), cfg, zap.NewNop(), appOptions{registerer: reg, seed: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	srv := NewServer(app)
	srv.metricsGatherer = reg

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ts := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string, header map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_HealthAndVersion(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"healthy"`)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	resp, body = get(t, ts.URL+"/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"storage"`)

	resp, body = get(t, ts.URL+"/version", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, Version)
}

func TestServer_SeedsSampleAndRunsIt(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/api/v1/workflows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, workflow.SampleWorkflow().ID)

	resp, err := http.Post(ts.URL+"/api/v1/workflows/"+workflow.SampleWorkflow().ID+"/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		Success bool                     `json:"success"`
		Data    workflow.ExecutionResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.True(t, env.Data.Success)
	assert.Len(t, env.Data.Outputs, len(workflow.SampleWorkflow().Nodes))
}

func TestServer_AgentsAndGenerate(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/api/v1/agents/global-config/schema", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "brandVoice")

	resp, _ = get(t, ts.URL+"/api/v1/agents/blog-writer", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// 未配置密钥
	gen, err := http.Post(ts.URL+"/api/ai/generate", "application/json", strings.NewReader(`{"prompt":"hi"}`))
	require.NoError(t, err)
	defer gen.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, gen.StatusCode)
	data, _ := io.ReadAll(gen.Body)
	assert.JSONEq(t, `{"error":"Gemini API key not configured"}`, string(data))
}

func TestServer_MetricsOnSharedPort(t *testing.T) {
	ts := newTestServer(t, nil)

	get(t, ts.URL+"/api/v1/workflows", nil)
	resp, body := get(t, ts.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "gtmflow_http_requests_total")
	assert.Contains(t, body, `path="/api/v1/workflows"`)
}

func TestServer_APIKeyProtectsAPI(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Server.APIKeys = []string{"k1"}
	})

	resp, _ := get(t, ts.URL+"/api/v1/workflows", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/api/v1/workflows", map[string]string{"X-API-Key": "k1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOriginPatterns(t *testing.T) {
	assert.Equal(t, []string{"localhost:3000", "app.example.com", "*"},
		originPatterns([]string{"http://localhost:3000", "https://app.example.com", "*"}))
}
