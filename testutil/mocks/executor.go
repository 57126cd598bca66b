package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/gtmflow/types"
)

// MockExecutor 是 types.Executor 的模拟实现，记录每次收到的输入。
type MockExecutor struct {
	id   string
	name string

	mu     sync.Mutex
	output types.FormData
	err    error
	fn     func(ctx context.Context, input types.FormData) (types.FormData, error)
	inputs []types.FormData
}

var _ types.Executor = (*MockExecutor)(nil)

// NewMockExecutor 创建返回空输出的执行器
func NewMockExecutor(id string) *MockExecutor {
	return &MockExecutor{id: id, name: id, output: types.FormData{}}
}

// WithOutput 设置固定输出
func (m *MockExecutor) WithOutput(out types.FormData) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.output = out
	return m
}

// WithError 设置返回错误
func (m *MockExecutor) WithError(err error) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFunc 自定义执行逻辑
func (m *MockExecutor) WithFunc(fn func(ctx context.Context, input types.FormData) (types.FormData, error)) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	return m
}

func (m *MockExecutor) ID() string   { return m.id }
func (m *MockExecutor) Name() string { return m.name }

// Execute 实现 types.Executor
func (m *MockExecutor) Execute(ctx context.Context, input types.FormData) (types.FormData, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input.Clone())
	fn, out, err := m.fn, m.output, m.err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, input)
	}
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// Inputs 返回收到的输入副本
func (m *MockExecutor) Inputs() []types.FormData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.FormData(nil), m.inputs...)
}

// CallCount 调用次数
func (m *MockExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}
