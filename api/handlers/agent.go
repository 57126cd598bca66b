package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/types"
)

// =============================================================================
// Agent Catalog Handler
// =============================================================================

// AgentCatalog Agent 目录，由 catalog.Catalog 实现
type AgentCatalog interface {
	Get(id string) (*types.AgentSchema, bool)
	List() []*types.AgentSchema
	GlobalConfigSchema() *types.AgentSchema
}

// ExecutorLookup 判断某 Agent 类型是否有执行器，由 workflow.Registry 实现
type ExecutorLookup interface {
	Has(agentID string) bool
}

// AgentInfo Agent 列表项
type AgentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Executable  bool   `json:"executable"`
}

// AgentHandler Agent 目录处理器
type AgentHandler struct {
	catalog   AgentCatalog
	executors ExecutorLookup
	logger    *zap.Logger
}

// NewAgentHandler creates an agent catalog handler. executors may be nil.
func NewAgentHandler(catalog AgentCatalog, executors ExecutorLookup, logger *zap.Logger) *AgentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentHandler{
		catalog:   catalog,
		executors: executors,
		logger:    logger.With(zap.String("handler", "agent")),
	}
}

// HandleListAgents GET /api/v1/agents
func (h *AgentHandler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	schemas := h.catalog.List()
	result := make([]AgentInfo, 0, len(schemas))
	for _, s := range schemas {
		result = append(result, AgentInfo{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Executable:  h.executors != nil && h.executors.Has(s.ID),
		})
	}
	WriteSuccess(w, r, result)
}

// HandleGetAgent GET /api/v1/agents/{id}，返回完整 schema
func (h *AgentHandler) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	schema, ok := h.catalog.Get(id)
	if !ok {
		WriteError(w, r, types.NewNotFoundError("agent", id), h.logger)
		return
	}
	WriteSuccess(w, r, schema)
}

// HandleGlobalConfigSchema GET /api/v1/global-config/schema
func (h *AgentHandler) HandleGlobalConfigSchema(w http.ResponseWriter, r *http.Request) {
	schema := h.catalog.GlobalConfigSchema()
	if schema == nil {
		WriteError(w, r, types.NewNotFoundError("agent", "global-config"), h.logger)
		return
	}
	WriteSuccess(w, r, schema)
}
