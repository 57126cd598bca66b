package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/gtmflow/llm/generate"
	"github.com/BaSui01/gtmflow/types"
)

// GenerateCall 记录一次生成调用
type GenerateCall struct {
	Kind   generate.Kind
	Prompt string
	Schema string
}

// MockGenerator 是 generate.Generator 的模拟实现。
// 默认返回固定文本与固定 JSON；可按调用注入自定义函数。
type MockGenerator struct {
	mu sync.Mutex

	available bool
	text      string
	json      any
	raw       string
	err       error

	textFunc func(ctx context.Context, prompt string) (string, error)
	jsonFunc func(ctx context.Context, prompt, schema string) (*generate.JSONResult, error)

	calls []GenerateCall
}

var _ generate.Generator = (*MockGenerator)(nil)

// NewMockGenerator 创建可用的 MockGenerator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		available: true,
		text:      "Mock generated text",
		json:      map[string]any{"ok": true},
		raw:       `{"ok":true}`,
	}
}

// WithAvailable 设置 Available() 的返回值
func (m *MockGenerator) WithAvailable(available bool) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
	return m
}

// WithText 设置文本响应
func (m *MockGenerator) WithText(text string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return m
}

// WithJSON 设置 JSON 响应及其原始文本
func (m *MockGenerator) WithJSON(value any, raw string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.json = value
	m.raw = raw
	return m
}

// WithError 所有调用返回该错误
func (m *MockGenerator) WithError(err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithTextFunc 自定义文本生成
func (m *MockGenerator) WithTextFunc(fn func(ctx context.Context, prompt string) (string, error)) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textFunc = fn
	return m
}

// WithJSONFunc 自定义 JSON 生成
func (m *MockGenerator) WithJSONFunc(fn func(ctx context.Context, prompt, schema string) (*generate.JSONResult, error)) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jsonFunc = fn
	return m
}

// Available 实现 generate.Generator
func (m *MockGenerator) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// GenerateText 实现 generate.Generator
func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerateCall{Kind: generate.KindText, Prompt: prompt})
	fn, text, err := m.textFunc, m.text, m.err
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if fn != nil {
		return fn(ctx, prompt)
	}
	return text, nil
}

// GenerateJSON 实现 generate.Generator
func (m *MockGenerator) GenerateJSON(ctx context.Context, prompt, schema string) (*generate.JSONResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerateCall{Kind: generate.KindJSON, Prompt: prompt, Schema: schema})
	fn, value, raw, err := m.jsonFunc, m.json, m.raw, m.err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, prompt, schema)
	}
	return &generate.JSONResult{Value: types.CloneValue(value), Raw: raw}, nil
}

// Calls 返回调用记录副本
func (m *MockGenerator) Calls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateCall(nil), m.calls...)
}
