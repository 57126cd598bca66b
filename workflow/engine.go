package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/types"
)

const instrumentationName = "github.com/BaSui01/gtmflow/workflow"

// ErrAlreadyExecuting 同一 Engine 上的并发 Run。
var ErrAlreadyExecuting = types.NewError(types.ErrAlreadyExecuting, "workflow is already executing")

// RunRecorder 运行指标记录接口，由 internal/metrics.Collector 实现。
type RunRecorder interface {
	RecordWorkflowRun(status string, duration time.Duration)
	RecordNodeExecution(agentID, status string, duration time.Duration)
}

// EngineOption 配置 Engine。
type EngineOption func(*Engine)

// WithClock 替换时钟（测试用）。
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithRecorder 设置运行指标记录器。
func WithRecorder(r RunRecorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithTracer 替换 OTel tracer，默认使用全局 TracerProvider。
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = t }
}

// Engine 顺序工作流执行引擎。
//
// 节点按序执行，每个节点经历 pending → running → completed|failed；
// 首个失败即终止整次运行。Engine 不在运行之间保存任何工作流状态，
// 但同一实例不支持并发 Run。
type Engine struct {
	registry  *Registry
	logger    *zap.Logger
	tracer    trace.Tracer
	recorder  RunRecorder
	now       func() time.Time
	executing atomic.Bool
}

// NewEngine 创建执行引擎。registry 为 nil 时使用空注册表。
func NewEngine(registry *Registry, logger *zap.Logger, opts ...EngineOption) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		registry: registry,
		logger:   logger.With(zap.String("component", "workflow_engine")),
		tracer:   otel.Tracer(instrumentationName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry 返回引擎的执行器注册表。
func (e *Engine) Registry() *Registry { return e.registry }

// IsExecuting reports whether a run is in flight.
func (e *Engine) IsExecuting() bool { return e.executing.Load() }

// Run 顺序执行工作流。
//
// 执行基于调用时的深拷贝快照，调用方后续对 wf 的修改不影响本次运行。
// 节点错误（包括未注册执行器）记录在结果的 Errors 中并终止运行，不作为返回错误；
// 返回错误仅限 nil 工作流与并发 Run。ctx 在每个节点开始前检查一次。
func (e *Engine) Run(ctx context.Context, wf *types.Workflow, onProgress ProgressFunc) (*ExecutionResult, error) {
	if wf == nil {
		return nil, types.NewValidationError("workflow is required")
	}
	if !e.executing.CompareAndSwap(false, true) {
		return nil, ErrAlreadyExecuting
	}
	defer e.executing.Store(false)

	if onProgress == nil {
		onProgress = func(ExecutionProgress) {}
	}

	snapshot := wf.Clone()
	runID, ok := types.RunID(ctx)
	if !ok || runID == "" {
		runID = uuid.NewString()
		ctx = types.WithRunID(ctx, runID)
	}
	ctx = types.WithWorkflowID(ctx, snapshot.ID)

	ctx, span := e.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("workflow.id", snapshot.ID),
		attribute.String("workflow.run_id", runID),
		attribute.Int("workflow.nodes", len(snapshot.Nodes)),
	))
	defer span.End()

	log := e.logger.With(
		zap.String("run_id", runID),
		zap.String("workflow_id", snapshot.ID),
	)
	log.Info("starting workflow run", zap.Int("nodes", len(snapshot.Nodes)))

	start := e.now()
	result := &ExecutionResult{
		RunID:   runID,
		Outputs: make(map[string]types.FormData),
		Errors:  make(map[string]string),
	}

	for _, node := range snapshot.Nodes {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			log.Warn("workflow run cancelled", zap.String("next_node", node.ID), zap.Error(err))
			break
		}

		output, err := e.runNode(ctx, node, result.Outputs, onProgress, log)
		if err != nil {
			result.Errors[node.ID] = errorMessage(err)
			break
		}
		result.Outputs[node.ID] = output
	}

	result.Success = len(result.Errors) == 0
	elapsed := e.now().Sub(start)
	result.TotalTimeMs = elapsed.Milliseconds()

	status := "success"
	switch {
	case !result.Success:
		status = "failed"
		span.SetStatus(codes.Error, "node failed")
	case result.Cancelled:
		status = "cancelled"
	}
	if e.recorder != nil {
		e.recorder.RecordWorkflowRun(status, elapsed)
	}

	log.Info("workflow run finished",
		zap.String("status", status),
		zap.Int("completed", len(result.Outputs)),
		zap.Duration("duration", elapsed),
	)
	return result, nil
}

// runNode 执行单个节点并按顺序发出 pending / running / 终态事件。
func (e *Engine) runNode(
	ctx context.Context,
	node types.WorkflowNode,
	prior map[string]types.FormData,
	onProgress ProgressFunc,
	log *zap.Logger,
) (types.FormData, error) {
	started := e.now()
	startMs := started.UnixMilli()

	onProgress(ExecutionProgress{NodeID: node.ID, Status: types.NodeStatusPending, StartTime: startMs})
	onProgress(ExecutionProgress{NodeID: node.ID, Status: types.NodeStatusRunning, StartTime: startMs})

	ctx, span := e.tracer.Start(ctx, "workflow.node", trace.WithAttributes(
		attribute.String("node.id", node.ID),
		attribute.String("agent.id", node.AgentID),
	))
	defer span.End()

	output, err := e.invoke(ctx, node, prior)
	ended := e.now()

	status := types.NodeStatusCompleted
	if err != nil {
		status = types.NodeStatusFailed
	}
	if e.recorder != nil {
		e.recorder.RecordNodeExecution(node.AgentID, string(status), ended.Sub(started))
	}

	if err != nil {
		msg := errorMessage(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		log.Error("node failed",
			zap.String("node_id", node.ID),
			zap.String("agent_id", node.AgentID),
			zap.Duration("duration", ended.Sub(started)),
			zap.Error(err),
		)
		onProgress(ExecutionProgress{
			NodeID:    node.ID,
			Status:    types.NodeStatusFailed,
			Error:     msg,
			StartTime: startMs,
			EndTime:   ended.UnixMilli(),
		})
		return nil, err
	}

	log.Debug("node completed",
		zap.String("node_id", node.ID),
		zap.String("agent_id", node.AgentID),
		zap.Duration("duration", ended.Sub(started)),
	)
	onProgress(ExecutionProgress{
		NodeID:    node.ID,
		Status:    types.NodeStatusCompleted,
		Output:    output,
		StartTime: startMs,
		EndTime:   ended.UnixMilli(),
	})
	return output, nil
}

// invoke 查找执行器并调用；执行器 panic 转换为节点错误。
func (e *Engine) invoke(ctx context.Context, node types.WorkflowNode, prior map[string]types.FormData) (out types.FormData, err error) {
	exec, ok := e.registry.Get(node.AgentID)
	if !ok {
		return nil, types.NewError(types.ErrExecutorNotRegistered,
			fmt.Sprintf("No executor registered for agent: %s", node.AgentID))
	}

	input := node.FormData.Clone()
	if input == nil {
		input = types.FormData{}
	}
	previous := make(map[string]any, len(prior))
	for id, o := range prior {
		previous[id] = map[string]any(o.Clone())
	}
	input[PreviousOutputsKey] = previous

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = types.NewError(types.ErrExecutorFailed, fmt.Sprintf("executor %s panicked: %v", node.AgentID, r))
		}
	}()

	out, err = exec.Execute(ctx, input)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = types.FormData{}
	}
	return out, nil
}

// errorMessage 提取面向用户的错误信息：types.Error 取 Message，其余取 Error()。
func errorMessage(err error) string {
	var te *types.Error
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}
