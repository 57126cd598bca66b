package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/storage"
	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
)

// =============================================================================
// 🗂️ Workflow Handler
// =============================================================================

// WorkflowHandler 工作流编辑、导入导出与节点视图
type WorkflowHandler struct {
	ws      *storage.Workspace
	schemas workflow.SchemaSource
	merger  *workflow.Merger
	now     func() time.Time
	logger  *zap.Logger
}

// WorkflowHandlerOption 配置 WorkflowHandler
type WorkflowHandlerOption func(*WorkflowHandler)

// WithHandlerClock 替换时钟（测试用）
func WithHandlerClock(now func() time.Time) WorkflowHandlerOption {
	return func(h *WorkflowHandler) { h.now = now }
}

// WithMerger 替换配置合并器
func WithMerger(m *workflow.Merger) WorkflowHandlerOption {
	return func(h *WorkflowHandler) { h.merger = m }
}

// NewWorkflowHandler 创建工作流处理器
func NewWorkflowHandler(ws *storage.Workspace, schemas workflow.SchemaSource, logger *zap.Logger, opts ...WorkflowHandlerOption) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &WorkflowHandler{
		ws:      ws,
		schemas: schemas,
		now:     time.Now,
		logger:  logger.With(zap.String("handler", "workflow")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 注册路由
func (h *WorkflowHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/workflows", h.HandleList)
	mux.HandleFunc("POST /api/v1/workflows", h.HandleCreate)
	mux.HandleFunc("POST /api/v1/workflows/import", h.HandleImport)
	mux.HandleFunc("GET /api/v1/workflows/{id}", h.HandleGet)
	mux.HandleFunc("PUT /api/v1/workflows/{id}", h.HandleReplace)
	mux.HandleFunc("DELETE /api/v1/workflows/{id}", h.HandleDelete)
	mux.HandleFunc("GET /api/v1/workflows/{id}/export", h.HandleExport)
	mux.HandleFunc("PUT /api/v1/workflows/{id}/global-config", h.HandleUpdateGlobalConfig)
	mux.HandleFunc("POST /api/v1/workflows/{id}/nodes", h.HandleAddNode)
	mux.HandleFunc("DELETE /api/v1/workflows/{id}/nodes/{nodeId}", h.HandleRemoveNode)
	mux.HandleFunc("PUT /api/v1/workflows/{id}/nodes/{nodeId}/data", h.HandleUpdateNodeData)
	mux.HandleFunc("PUT /api/v1/workflows/{id}/nodes/{nodeId}/conditions", h.HandleUpdateNodeConditions)
	mux.HandleFunc("GET /api/v1/workflows/{id}/nodes/{nodeId}/effective", h.HandleNodeView)
}

// WorkflowSummary 列表项
type WorkflowSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Nodes        int    `json:"nodes"`
	LastModified string `json:"lastModified,omitempty"`
}

// HandleList GET /api/v1/workflows
func (h *WorkflowHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.ws.List(r.Context())
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	out := make([]WorkflowSummary, 0, len(all))
	for _, sw := range all {
		out = append(out, WorkflowSummary{
			ID:           sw.ID,
			Name:         sw.Name,
			Description:  sw.Description,
			Nodes:        len(sw.Nodes),
			LastModified: sw.LastModified,
		})
	}
	WriteSuccess(w, r, out)
}

// HandleCreate POST /api/v1/workflows。未提供 id 时生成 UUID；同 ID 已存在返回 409。
func (h *WorkflowHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var wf types.Workflow
	if err := DecodeJSONBody(w, r, &wf); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	if wf.ID == "" {
		wf.ID = uuid.NewString()
	}
	if wf.Nodes == nil {
		wf.Nodes = []types.WorkflowNode{}
	}
	if err := workflow.Validate(&wf); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	if _, err := h.ws.Load(r.Context(), wf.ID); err == nil {
		WriteError(w, r, types.NewValidationError(fmt.Sprintf("Workflow %s already exists", wf.ID)).
			WithHTTPStatus(http.StatusConflict), h.logger)
		return
	} else if !types.IsErrorCode(err, types.ErrNotFound) {
		WriteError(w, r, err, h.logger)
		return
	}

	if err := h.ws.Replace(r.Context(), &wf); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	h.logger.Info("workflow created", zap.String("workflow_id", wf.ID), zap.Int("nodes", len(wf.Nodes)))
	WriteStatus(w, r, http.StatusCreated, &wf)
}

// HandleGet GET /api/v1/workflows/{id}
func (h *WorkflowHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	wf, err := h.ws.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, wf)
}

// HandleReplace PUT /api/v1/workflows/{id}：整体替换并立即保存
func (h *WorkflowHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var wf types.Workflow
	if err := DecodeJSONBody(w, r, &wf); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	if wf.ID == "" {
		wf.ID = id
	}
	if wf.ID != id {
		WriteError(w, r, types.NewValidationError(
			fmt.Sprintf("Workflow ID %s does not match path %s", wf.ID, id)), h.logger)
		return
	}
	if err := workflow.Validate(&wf); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	if err := h.ws.Replace(r.Context(), &wf); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, &wf)
}

// HandleDelete DELETE /api/v1/workflows/{id}，不存在时同样返回 204
func (h *WorkflowHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport GET /api/v1/workflows/{id}/export：缩进 JSON 附件
func (h *WorkflowHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	wf, err := h.ws.Load(r.Context(), id)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	data, err := h.ws.Export(r.Context(), id)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", workflow.ExportFilename(wf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleImport POST /api/v1/workflows/import：请求体为导出的工作流 JSON
func (h *WorkflowHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		WriteError(w, r, types.NewError(types.ErrInvalidRequest, "failed to read request body").WithCause(err), h.logger)
		return
	}
	wf, err := h.ws.Import(r.Context(), data)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	h.logger.Info("workflow imported", zap.String("workflow_id", wf.ID))
	WriteStatus(w, r, http.StatusCreated, wf)
}

// HandleUpdateGlobalConfig PUT /api/v1/workflows/{id}/global-config
func (h *WorkflowHandler) HandleUpdateGlobalConfig(w http.ResponseWriter, r *http.Request) {
	var cfg types.FormData
	if err := DecodeJSONBody(w, r, &cfg); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	wf, err := h.ws.Update(r.Context(), r.PathValue("id"), func(wf *types.Workflow) (*types.Workflow, error) {
		return workflow.UpdateGlobalConfig(wf, cfg), nil
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, wf)
}

// AddNodeRequest 追加节点请求
type AddNodeRequest struct {
	AgentID string `json:"agentId"`
	ID      string `json:"id,omitempty"`
}

// HandleAddNode POST /api/v1/workflows/{id}/nodes
func (h *WorkflowHandler) HandleAddNode(w http.ResponseWriter, r *http.Request) {
	var req AddNodeRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	schema, ok := h.schemas.Get(req.AgentID)
	if !ok {
		WriteError(w, r, types.NewNotFoundError("agent", req.AgentID), h.logger)
		return
	}
	nodeID := req.ID
	if nodeID == "" {
		nodeID = "node-" + uuid.NewString()
	}

	wf, err := h.ws.Update(r.Context(), r.PathValue("id"), func(wf *types.Workflow) (*types.Workflow, error) {
		if n, _ := wf.Node(nodeID); n != nil {
			return nil, types.NewValidationError("Duplicate node ID: " + nodeID)
		}
		return workflow.AppendNode(wf, workflow.NewNode(nodeID, schema)), nil
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteStatus(w, r, http.StatusCreated, wf)
}

// HandleRemoveNode DELETE /api/v1/workflows/{id}/nodes/{nodeId}
func (h *WorkflowHandler) HandleRemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("nodeId")
	wf, err := h.ws.Update(r.Context(), r.PathValue("id"), func(wf *types.Workflow) (*types.Workflow, error) {
		if n, _ := wf.Node(nodeID); n == nil {
			return nil, types.NewNotFoundError("node", nodeID)
		}
		return workflow.RemoveNode(wf, nodeID), nil
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, wf)
}

// HandleUpdateNodeData PUT /api/v1/workflows/{id}/nodes/{nodeId}/data
func (h *WorkflowHandler) HandleUpdateNodeData(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("nodeId")
	var data types.FormData
	if err := DecodeJSONBody(w, r, &data); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	wf, err := h.ws.Update(r.Context(), r.PathValue("id"), func(wf *types.Workflow) (*types.Workflow, error) {
		if n, _ := wf.Node(nodeID); n == nil {
			return nil, types.NewNotFoundError("node", nodeID)
		}
		return workflow.UpdateNodeFormData(wf, nodeID, data, h.now()), nil
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	node, _ := wf.Node(nodeID)
	WriteSuccess(w, r, node)
}

// HandleUpdateNodeConditions PUT /api/v1/workflows/{id}/nodes/{nodeId}/conditions
func (h *WorkflowHandler) HandleUpdateNodeConditions(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("nodeId")
	var conditions []types.Condition
	if err := DecodeJSONBody(w, r, &conditions); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	wf, err := h.ws.Update(r.Context(), r.PathValue("id"), func(wf *types.Workflow) (*types.Workflow, error) {
		if n, _ := wf.Node(nodeID); n == nil {
			return nil, types.NewNotFoundError("node", nodeID)
		}
		return workflow.UpdateNodeConditions(wf, nodeID, conditions), nil
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	node, _ := wf.Node(nodeID)
	WriteSuccess(w, r, node)
}

// HandleNodeView GET /api/v1/workflows/{id}/nodes/{nodeId}/effective
func (h *WorkflowHandler) HandleNodeView(w http.ResponseWriter, r *http.Request) {
	wf, err := h.ws.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	view, err := workflow.ResolveNodeView(wf, r.PathValue("nodeId"), h.schemas, h.merger)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, view)
}
