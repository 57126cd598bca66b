package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/BaSui01/gtmflow/types"
)

// Registry Agent 类型 ID → Executor 的注册表。
// 每个 Engine 持有自己的 Registry，测试之间互不干扰。
type Registry struct {
	mu        sync.RWMutex
	executors map[string]types.Executor
}

// NewRegistry 创建空注册表，并注册给定的执行器。
func NewRegistry(executors ...types.Executor) *Registry {
	r := &Registry{executors: make(map[string]types.Executor)}
	for _, e := range executors {
		r.MustRegister(e)
	}
	return r
}

// Register 注册执行器；相同 ID 的旧执行器被替换。
func (r *Registry) Register(exec types.Executor) error {
	if exec == nil {
		return fmt.Errorf("executor is nil")
	}
	id := exec.ID()
	if id == "" {
		return fmt.Errorf("executor id is required")
	}
	r.mu.Lock()
	r.executors[id] = exec
	r.mu.Unlock()
	return nil
}

// MustRegister 同 Register，失败时 panic。
func (r *Registry) MustRegister(exec types.Executor) {
	if err := r.Register(exec); err != nil {
		panic(err)
	}
}

// Get 按 Agent 类型 ID 查找执行器。
func (r *Registry) Get(agentID string) (types.Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[agentID]
	return e, ok
}

// Has 判断是否已注册。
func (r *Registry) Has(agentID string) bool {
	_, ok := r.Get(agentID)
	return ok
}

// Count 返回已注册执行器数量。
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.executors)
}

// IDs 按字典序返回已注册的 Agent 类型 ID。
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.executors))
	for id := range r.executors {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// ====== 函数式执行器 ======

// ExecuteFunc 执行函数签名。
type ExecuteFunc func(ctx context.Context, input types.FormData) (types.FormData, error)

// FuncExecutor 把普通函数包装为 Executor。
type FuncExecutor struct {
	id   string
	name string
	fn   ExecuteFunc
}

// NewFuncExecutor 创建函数式执行器。
func NewFuncExecutor(id, name string, fn ExecuteFunc) *FuncExecutor {
	return &FuncExecutor{id: id, name: name, fn: fn}
}

func (f *FuncExecutor) ID() string   { return f.id }
func (f *FuncExecutor) Name() string { return f.name }

func (f *FuncExecutor) Execute(ctx context.Context, input types.FormData) (types.FormData, error) {
	return f.fn(ctx, input)
}
