package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
)

const (
	// DefaultKey 信封在后端中的固定键
	DefaultKey = "agent-flow-workflows"
	// Version 当前信封版本
	Version = "1.0"
)

// envelope 持久化格式
type envelope struct {
	Version      string                     `json:"version"`
	Workflows    map[string]*types.Workflow `json:"workflows"`
	LastModified map[string]string          `json:"lastModified"`
}

func newEnvelope() *envelope {
	return &envelope{
		Version:      Version,
		Workflows:    make(map[string]*types.Workflow),
		LastModified: make(map[string]string),
	}
}

// Recorder 存储操作指标
type Recorder interface {
	RecordStorageOperation(op, status string, d time.Duration)
}

// StoreOption 配置 Store
type StoreOption func(*Store)

// WithKey 覆盖信封键
func WithKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock 注入时钟（lastModified 时间戳）
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStoreRecorder 注入指标记录器
func WithStoreRecorder(r Recorder) StoreOption {
	return func(s *Store) { s.recorder = r }
}

// Store 工作流持久化存储。
// 所有读改写在同一把锁内完成；跨进程共享同一后端时后写者胜出。
type Store struct {
	sub      Substrate
	key      string
	now      func() time.Time
	recorder Recorder
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewStore 创建 Store
func NewStore(sub Substrate, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		sub:    sub,
		key:    DefaultKey,
		now:    time.Now,
		logger: logger.With(zap.String("component", "workflow_store")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key 返回信封键
func (s *Store) Key() string { return s.key }

// =============================================================================
// 信封读写
// =============================================================================

func (s *Store) read(ctx context.Context) (*envelope, error) {
	raw, ok, err := s.sub.GetItem(ctx, s.key)
	if err != nil {
		return nil, types.NewStorageError("Failed to read workflow storage", err)
	}
	if !ok {
		env := newEnvelope()
		if err := s.write(ctx, env); err != nil {
			return nil, err
		}
		return env, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, types.NewStorageError("Workflow storage is corrupted", err)
	}
	if env.Version != Version {
		s.logger.Warn("storage version mismatch, reinitializing",
			zap.String("found", env.Version),
			zap.String("expected", Version))
		fresh := newEnvelope()
		if err := s.write(ctx, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if env.Workflows == nil {
		env.Workflows = make(map[string]*types.Workflow)
	}
	if env.LastModified == nil {
		env.LastModified = make(map[string]string)
	}
	return &env, nil
}

func (s *Store) write(ctx context.Context, env *envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return types.NewStorageError("Failed to encode workflow storage", err)
	}
	if err := s.sub.SetItem(ctx, s.key, string(data)); err != nil {
		return types.NewStorageError("Failed to write workflow storage", err)
	}
	return nil
}

func (s *Store) observe(op string, start time.Time, err error) {
	if s.recorder == nil {
		return
	}
	status := "success"
	if err != nil {
		status = string(types.GetErrorCode(err))
		if status == "" {
			status = "error"
		}
	}
	s.recorder.RecordStorageOperation(op, status, time.Since(start))
}

// =============================================================================
// 操作
// =============================================================================

// Save 整体覆盖保存工作流并记录当前时间。
func (s *Store) Save(ctx context.Context, wf *types.Workflow) (err error) {
	defer func(start time.Time) { s.observe("save", start, err) }(time.Now())
	if wf == nil || wf.ID == "" {
		return types.NewValidationError("Workflow must have an ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.read(ctx)
	if err != nil {
		return err
	}
	env.Workflows[wf.ID] = wf.Clone()
	env.LastModified[wf.ID] = workflow.Timestamp(s.now())
	if err = s.write(ctx, env); err != nil {
		return err
	}
	s.logger.Debug("workflow saved", zap.String("workflow_id", wf.ID))
	return nil
}

// Load 读取单个工作流；不存在时返回 NOT_FOUND。
func (s *Store) Load(ctx context.Context, id string) (wf *types.Workflow, err error) {
	defer func(start time.Time) { s.observe("load", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	stored, ok := env.Workflows[id]
	if !ok || stored == nil {
		return nil, notFound(id)
	}
	return stored.Clone(), nil
}

// LoadAll 返回所有工作流（按 ID 排序），附带最后修改时间。
func (s *Store) LoadAll(ctx context.Context) (out []types.StoredWorkflow, err error) {
	defer func(start time.Time) { s.observe("load_all", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(env.Workflows))
	for id, wf := range env.Workflows {
		if wf != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out = make([]types.StoredWorkflow, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.StoredWorkflow{
			Workflow:     env.Workflows[id].Clone(),
			LastModified: env.LastModified[id],
		})
	}
	return out, nil
}

// Delete 删除工作流及其时间戳；不存在时为空操作。
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.observe("delete", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.read(ctx)
	if err != nil {
		return err
	}
	delete(env.Workflows, id)
	delete(env.LastModified, id)
	return s.write(ctx, env)
}

// Export 以两空格缩进的 JSON 导出单个工作流。
func (s *Store) Export(ctx context.Context, id string) ([]byte, error) {
	wf, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return nil, types.NewStorageError("Failed to export workflow", err)
	}
	return data, nil
}

// Import 解析并保存工作流。仅校验 id、name、nodes；校验失败时不写入。
// 解析与结构错误统一报告为 "Invalid workflow JSON"，具体原因放在 Details 中。
func (s *Store) Import(ctx context.Context, data []byte) (*types.Workflow, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, invalidImport(err.Error()).WithCause(err)
	}
	var wf types.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, invalidImport(err.Error()).WithCause(err)
	}
	nodes, hasNodes := probe["nodes"]
	if wf.ID == "" || wf.Name == "" || !hasNodes || string(nodes) == "null" {
		return nil, invalidImport("Invalid workflow structure")
	}
	if wf.Nodes == nil {
		wf.Nodes = []types.WorkflowNode{}
	}

	if err := s.Save(ctx, &wf); err != nil {
		return nil, err
	}
	return wf.Clone(), nil
}

// Clear 删除整个信封。
func (s *Store) Clear(ctx context.Context) (err error) {
	defer func(start time.Time) { s.observe("clear", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.sub.RemoveItem(ctx, s.key); err != nil {
		return types.NewStorageError("Failed to clear workflow storage", err)
	}
	return nil
}

// Ping 检查后端
func (s *Store) Ping(ctx context.Context) error {
	return s.sub.Ping(ctx)
}

// Close 关闭后端
func (s *Store) Close() error {
	return s.sub.Close()
}

func notFound(id string) *types.Error {
	return types.NewError(types.ErrNotFound, fmt.Sprintf("Workflow %s not found", id))
}

func invalidImport(detail string) *types.Error {
	return types.NewError(types.ErrValidation, "Invalid workflow JSON").WithDetails(detail)
}
