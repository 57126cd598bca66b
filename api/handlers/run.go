package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/storage"
	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
)

// RunIDHeader 响应头中的运行 ID
const RunIDHeader = "X-Run-ID"

// =============================================================================
// ▶️ Run Handler
// =============================================================================

// RunEvent 流式运行事件（WebSocket 消息体）
type RunEvent struct {
	Type     string                      `json:"type"` // progress | result | error
	RunID    string                      `json:"runId,omitempty"`
	Progress *workflow.ExecutionProgress `json:"progress,omitempty"`
	Result   *workflow.ExecutionResult   `json:"result,omitempty"`
	Error    *ErrorInfo                  `json:"error,omitempty"`
}

// RunHandler 执行工作流。每个工作流一个 Engine，同一工作流同时只允许一次运行。
type RunHandler struct {
	ws         *storage.Workspace
	registry   *workflow.Registry
	engineOpts []workflow.EngineOption
	timeout    time.Duration
	origins    []string
	logger     *zap.Logger

	mu      sync.Mutex
	engines map[string]*workflow.Engine
	running map[string]bool
}

// RunHandlerOption 配置 RunHandler
type RunHandlerOption func(*RunHandler)

// WithRunTimeout 单次运行超时，0 表示不限
func WithRunTimeout(d time.Duration) RunHandlerOption {
	return func(h *RunHandler) { h.timeout = d }
}

// WithEngineOptions 透传给每个 Engine 的选项（指标、tracer、时钟）
func WithEngineOptions(opts ...workflow.EngineOption) RunHandlerOption {
	return func(h *RunHandler) { h.engineOpts = append(h.engineOpts, opts...) }
}

// WithOriginPatterns WebSocket 允许的跨域来源
func WithOriginPatterns(patterns ...string) RunHandlerOption {
	return func(h *RunHandler) { h.origins = append(h.origins, patterns...) }
}

// NewRunHandler 创建运行处理器
func NewRunHandler(ws *storage.Workspace, registry *workflow.Registry, logger *zap.Logger, opts ...RunHandlerOption) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &RunHandler{
		ws:       ws,
		registry: registry,
		logger:   logger.With(zap.String("handler", "run")),
		engines:  make(map[string]*workflow.Engine),
		running:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 注册路由
func (h *RunHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/workflows/{id}/run", h.HandleRun)
	mux.HandleFunc("GET /api/v1/workflows/{id}/run/ws", h.HandleRunWS)
}

// IsRunning 报告工作流是否正在运行
func (h *RunHandler) IsRunning(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running[id]
}

// acquire 占用工作流的运行槽位
func (h *RunHandler) acquire(id string) (*workflow.Engine, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running[id] {
		return nil, nil, workflow.ErrAlreadyExecuting
	}
	engine, ok := h.engines[id]
	if !ok {
		engine = workflow.NewEngine(h.registry, h.logger, h.engineOpts...)
		h.engines[id] = engine
	}
	h.running[id] = true
	return engine, func() {
		h.mu.Lock()
		delete(h.running, id)
		h.mu.Unlock()
	}, nil
}

// pendingRun 已校验、已占用槽位、尚未开始的运行
type pendingRun struct {
	id      string
	runID   string
	wf      *types.Workflow
	engine  *workflow.Engine
	release func()
}

// prepare 占用槽位、校验工作流并复位节点状态。失败时不占用槽位。
func (h *RunHandler) prepare(ctx context.Context, id string) (*pendingRun, error) {
	engine, release, err := h.acquire(id)
	if err != nil {
		return nil, err
	}
	wf, err := h.ws.Update(ctx, id, func(wf *types.Workflow) (*types.Workflow, error) {
		if err := workflow.Validate(wf); err != nil {
			return nil, err
		}
		return workflow.ResetStatuses(wf), nil
	})
	if err != nil {
		release()
		return nil, err
	}
	return &pendingRun{id: id, runID: uuid.NewString(), wf: wf, engine: engine, release: release}, nil
}

// execute 运行工作流；每个进度事件先应用到 Workspace 再交给 emit。
func (h *RunHandler) execute(ctx context.Context, run *pendingRun, emit func(workflow.ExecutionProgress)) (*workflow.ExecutionResult, error) {
	defer run.release()

	ctx = types.WithRunID(ctx, run.runID)
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	// 状态写回不随客户端断开而中止
	persistCtx := context.WithoutCancel(ctx)

	return run.engine.Run(ctx, run.wf, func(p workflow.ExecutionProgress) {
		_, err := h.ws.Update(persistCtx, run.id, func(wf *types.Workflow) (*types.Workflow, error) {
			return workflow.ApplyProgress(wf, p), nil
		})
		if err != nil {
			h.logger.Warn("failed to apply progress",
				zap.String("workflow_id", run.id),
				zap.String("node_id", p.NodeID),
				zap.Error(err))
		}
		if emit != nil {
			emit(p)
		}
	})
}

// HandleRun POST /api/v1/workflows/{id}/run。
// Accept: text/event-stream 时以 SSE 推送 progress 事件，最后发送 result 事件；否则返回 JSON 结果。
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.prepare(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	w.Header().Set(RunIDHeader, run.runID)

	flusher, canStream := w.(http.Flusher)
	if !canStream || !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		result, err := h.execute(r.Context(), run, nil)
		if err != nil {
			WriteError(w, r, err, h.logger)
			return
		}
		WriteSuccess(w, r, result)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // 禁用 nginx 缓冲
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	result, err := h.execute(r.Context(), run, func(p workflow.ExecutionProgress) {
		writeSSE(w, flusher, "progress", p)
	})
	if err != nil {
		te, ok := types.AsError(err)
		if !ok {
			te = types.NewError(types.ErrInternalError, err.Error())
		}
		writeSSE(w, flusher, "error", &ErrorInfo{Code: string(te.Code), Kind: string(te.Kind()), Message: te.Message})
		return
	}
	writeSSE(w, flusher, "result", result)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

// HandleRunWS GET /api/v1/workflows/{id}/run/ws：升级为 WebSocket 后运行，
// 每个进度事件一条 RunEvent 消息，结束时发送 result 并正常关闭。客户端断开即取消运行。
func (h *RunHandler) HandleRunWS(w http.ResponseWriter, r *http.Request) {
	run, err := h.prepare(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		run.release()
		h.logger.Warn("websocket upgrade failed", zap.String("workflow_id", run.id), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// 只写不读；对端关闭时 ctx 被取消
	ctx := conn.CloseRead(r.Context())
	stream := &wsEventWriter{conn: conn}

	result, err := h.execute(ctx, run, func(p workflow.ExecutionProgress) {
		if werr := stream.write(ctx, RunEvent{Type: "progress", RunID: run.runID, Progress: &p}); werr != nil {
			h.logger.Debug("websocket write failed", zap.String("run_id", run.runID), zap.Error(werr))
		}
	})
	if err != nil {
		te, ok := types.AsError(err)
		if !ok {
			te = types.NewError(types.ErrInternalError, err.Error())
		}
		_ = stream.write(ctx, RunEvent{Type: "error", RunID: run.runID,
			Error: &ErrorInfo{Code: string(te.Code), Kind: string(te.Kind()), Message: te.Message}})
		_ = conn.Close(websocket.StatusInternalError, "run failed")
		return
	}
	_ = stream.write(ctx, RunEvent{Type: "result", RunID: run.runID, Result: result})
	_ = conn.Close(websocket.StatusNormalClosure, "run finished")
}

// wsEventWriter 写操作通过 mutex 保护，WebSocket 不支持并发写。
type wsEventWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsEventWriter) write(ctx context.Context, ev RunEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}
