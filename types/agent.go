package types

import "context"

// =============================================================================
// Agent 执行契约与 Agent Schema
// =============================================================================
// types 是最底层的包，执行接口放在这里，workflow 与 executors 都依赖它而不互相依赖。
// =============================================================================

// Executor is the minimal agent execution interface.
// ID must match the agent-type identifier used by workflow nodes.
// Implementations receive all context, including prior node outputs,
// through input and must not rely on shared global state.
type Executor interface {
	// ID returns the agent type identifier.
	ID() string
	// Execute turns node input into node output.
	Execute(ctx context.Context, input FormData) (FormData, error)
}

// Named is an optional interface for executors that have a display name.
type Named interface {
	// Name returns the agent's human-readable display name.
	Name() string
}

// AgentCapabilities 两个相互独立的编辑能力开关。
type AgentCapabilities struct {
	AllowSchemaEdit bool `json:"allowSchemaEdit" yaml:"allowSchemaEdit"`
	AllowDataEdit   bool `json:"allowDataEdit" yaml:"allowDataEdit"`
}

// AgentSchema 描述一个 Agent 类型：输入字段的 JSON Schema、UI 提示与编辑能力。
// 定义后不可变，由静态目录持有。
type AgentSchema struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Schema      *JSONSchema        `json:"schema" yaml:"schema"`
	UISchema    map[string]any     `json:"uiSchema,omitempty" yaml:"uiSchema,omitempty"`
	Config      *AgentCapabilities `json:"config,omitempty" yaml:"config,omitempty"`
}

// PropertyType 返回字段声明的类型；未声明返回空串。
func (a *AgentSchema) PropertyType(field string) SchemaType {
	if a == nil || a.Schema == nil {
		return ""
	}
	if p, ok := a.Schema.Properties[field]; ok && p != nil {
		return p.Type
	}
	return ""
}

// PropertyNames 返回 schema 声明的字段名（无序）。
func (a *AgentSchema) PropertyNames() []string {
	if a == nil || a.Schema == nil {
		return nil
	}
	names := make([]string, 0, len(a.Schema.Properties))
	for name := range a.Schema.Properties {
		names = append(names, name)
	}
	return names
}
