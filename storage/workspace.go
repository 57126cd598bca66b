package storage

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/types"
)

// =============================================================================
// 🗂️ Workspace：编辑中的工作流 + 自动保存
// =============================================================================

// Workspace 在 Store 之上维护尚未落盘的编辑草稿。
//
// 开启自动保存时，Update 只更新草稿并交给 AutoSaver 防抖落盘，
// 读取优先返回草稿，因此防抖窗口内的“读-改-写”看到的总是最新编辑。
// 草稿在对应快照成功保存且没有新的待保存项时丢弃。
// Replace / Delete / Import 属于显式操作，直接写 Store 并丢弃草稿与待保存项。
type Workspace struct {
	store     *Store
	autosaver *AutoSaver
	logger    *zap.Logger

	mu     sync.Mutex
	drafts map[string]*types.Workflow
}

// WorkspaceOption 配置 Workspace
type WorkspaceOption func(*workspaceConfig)

type workspaceConfig struct {
	autosave bool
	opts     []AutoSaveOption
}

// WithAutoSave 开启防抖自动保存，opts 透传给 AutoSaver。
func WithAutoSave(opts ...AutoSaveOption) WorkspaceOption {
	return func(c *workspaceConfig) {
		c.autosave = true
		c.opts = append(c.opts, opts...)
	}
}

// NewWorkspace 创建 Workspace。未开启自动保存时每次 Update 同步写入 Store。
func NewWorkspace(store *Store, logger *zap.Logger, opts ...WorkspaceOption) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	var cfg workspaceConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Workspace{
		store:  store,
		logger: logger.With(zap.String("component", "workspace")),
		drafts: make(map[string]*types.Workflow),
	}
	if cfg.autosave {
		w.autosaver = NewAutoSaver(workspaceSaver{w}, logger, cfg.opts...)
	}
	return w
}

// Store 返回底层 Store
func (w *Workspace) Store() *Store { return w.store }

// AutoSaveEnabled 是否开启自动保存
func (w *Workspace) AutoSaveEnabled() bool { return w.autosaver != nil }

// Load 读取工作流，存在草稿时返回草稿副本。
func (w *Workspace) Load(ctx context.Context, id string) (*types.Workflow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.load(ctx, id)
}

func (w *Workspace) load(ctx context.Context, id string) (*types.Workflow, error) {
	if d, ok := w.drafts[id]; ok {
		return d.Clone(), nil
	}
	return w.store.Load(ctx, id)
}

// List 返回所有已保存工作流，草稿覆盖对应条目的内容。
func (w *Workspace) List(ctx context.Context) ([]types.StoredWorkflow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	all, err := w.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if d, ok := w.drafts[all[i].ID]; ok {
			all[i].Workflow = d.Clone()
		}
	}
	return all, nil
}

// Update 以函数式更新修改工作流：读取最新状态，交给 fn，再记录结果。
// fn 返回错误时不做任何修改。
func (w *Workspace) Update(ctx context.Context, id string, fn func(*types.Workflow) (*types.Workflow, error)) (*types.Workflow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cur, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	if next == nil || next.ID != id {
		return nil, types.NewError(types.ErrInternalError, "workflow update changed the workflow id")
	}

	if w.autosaver == nil {
		if err := w.store.Save(ctx, next); err != nil {
			return nil, err
		}
		return next.Clone(), nil
	}
	w.drafts[id] = next.Clone()
	w.autosaver.Observe(next)
	return next.Clone(), nil
}

// Replace 立即保存整个工作流，丢弃草稿与待保存项。
func (w *Workspace) Replace(ctx context.Context, wf *types.Workflow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if wf != nil {
		w.discard(wf.ID)
	}
	return w.store.Save(ctx, wf)
}

// Delete 删除工作流；不存在时无操作。
func (w *Workspace) Delete(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.discard(id)
	return w.store.Delete(ctx, id)
}

// Import 解析并保存导入的工作流，覆盖同 ID 的草稿。
func (w *Workspace) Import(ctx context.Context, data []byte) (*types.Workflow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wf, err := w.store.Import(ctx, data)
	if err != nil {
		return nil, err
	}
	w.discard(wf.ID)
	return wf, nil
}

// Export 以两空格缩进导出工作流（包含未落盘的编辑）。
func (w *Workspace) Export(ctx context.Context, id string) ([]byte, error) {
	wf, err := w.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return nil, types.NewStorageError("Failed to export workflow", err)
	}
	return data, nil
}

// HasDraft 报告是否存在未落盘的编辑
func (w *Workspace) HasDraft(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.drafts[id]
	return ok
}

// Flush 立即保存所有待保存项
func (w *Workspace) Flush(ctx context.Context) error {
	if w.autosaver == nil {
		return nil
	}
	return w.autosaver.Flush(ctx)
}

// Close 刷新待保存项并停止自动保存；不关闭 Store。
func (w *Workspace) Close(ctx context.Context) error {
	if w.autosaver == nil {
		return nil
	}
	return w.autosaver.Close(ctx)
}

// discard 调用方持有 w.mu
func (w *Workspace) discard(id string) {
	if w.autosaver != nil {
		w.autosaver.Cancel(id)
	}
	delete(w.drafts, id)
}

// workspaceSaver AutoSaver 的保存目标：写入 Store 后按需丢弃草稿。
type workspaceSaver struct{ w *Workspace }

func (s workspaceSaver) Save(ctx context.Context, wf *types.Workflow) error {
	w := s.w
	w.mu.Lock()
	defer w.mu.Unlock()

	// 保存期间被 Replace / Delete 丢弃的快照不再写回
	if _, ok := w.drafts[wf.ID]; !ok {
		return nil
	}
	if err := w.store.Save(ctx, wf); err != nil {
		return err
	}
	if !w.autosaver.Pending(wf.ID) {
		delete(w.drafts, wf.ID)
	}
	return nil
}
