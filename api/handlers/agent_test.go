package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/catalog"
	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
	"github.com/BaSui01/gtmflow/workflow/executors"
)

// =============================================================================
// 🧪 AgentHandler 测试
// =============================================================================

func newAgentMux(t *testing.T) *http.ServeMux {
	t.Helper()
	reg, _ := executors.NewRegistry(executors.Options{Mode: executors.ModeMock})
	h := NewAgentHandler(catalog.MustDefault(), reg, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/agents", h.HandleListAgents)
	mux.HandleFunc("GET /api/v1/agents/{id}", h.HandleGetAgent)
	mux.HandleFunc("GET /api/v1/global-config/schema", h.HandleGlobalConfigSchema)
	return mux
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.True(t, resp.Success, string(body))
	return resp.Data
}

func TestAgentHandler_HandleListAgents(t *testing.T) {
	mux := newAgentMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil))
	require.Equal(t, http.StatusOK, w.Code)

	agents := decodeData[[]AgentInfo](t, w.Body.Bytes())
	require.Len(t, agents, 11)
	assert.Equal(t, "content-research", agents[0].ID)

	executable := map[string]bool{}
	for _, a := range agents {
		executable[a.ID] = a.Executable
	}
	assert.True(t, executable["blog-writer"])
	assert.False(t, executable["email-marketing"], "catalog-only agents have no executor")
}

func TestAgentHandler_HandleGetAgent(t *testing.T) {
	mux := newAgentMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/agents/seo-optimizer", nil))
	require.Equal(t, http.StatusOK, w.Code)
	schema := decodeData[types.AgentSchema](t, w.Body.Bytes())
	assert.Equal(t, "seo-optimizer", schema.ID)
	require.NotNil(t, schema.Schema)
	assert.Contains(t, schema.Schema.Properties, "focusKeyword")

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/agents/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgentHandler_GlobalConfigSchema(t *testing.T) {
	mux := newAgentMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/global-config/schema", nil))
	require.Equal(t, http.StatusOK, w.Code)
	schema := decodeData[types.AgentSchema](t, w.Body.Bytes())
	assert.Contains(t, schema.Schema.Properties, "brandVoice")

	empty, err := catalog.New()
	require.NoError(t, err)
	h := NewAgentHandler(empty, workflow.NewRegistry(), nil)
	w = httptest.NewRecorder()
	h.HandleGlobalConfigSchema(w, httptest.NewRequest(http.MethodGet, "/api/v1/global-config/schema", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
