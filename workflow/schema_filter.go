package workflow

import (
	"github.com/BaSui01/gtmflow/types"
)

// FilterSchemaFields 返回移除了隐藏字段的 schema 视图，不修改源 schema。
//
// 隐藏字段同时从 properties 与 required 中删除；required 被删空时整体省略。
// hidden 为空时直接返回原 schema。
func FilterSchemaFields(schema *types.AgentSchema, hidden *FieldSet) *types.AgentSchema {
	if schema == nil || hidden.Len() == 0 {
		return schema
	}

	out := *schema
	if schema.Schema == nil {
		return &out
	}

	inner := *schema.Schema
	if schema.Schema.Properties != nil {
		inner.Properties = make(map[string]*types.JSONSchema, len(schema.Schema.Properties))
		for name, prop := range schema.Schema.Properties {
			if hidden.Has(name) {
				continue
			}
			inner.Properties[name] = prop
		}
	}

	inner.Required = nil
	for _, name := range schema.Schema.Required {
		if !hidden.Has(name) {
			inner.Required = append(inner.Required, name)
		}
	}

	out.Schema = &inner
	return &out
}

// VisibleSchema 组合条件求值与 schema 过滤：返回节点当前可见的 schema 以及被隐藏的字段。
func VisibleSchema(schema *types.AgentSchema, conditions []types.Condition, effective types.FormData) (*types.AgentSchema, *FieldSet) {
	hidden := HiddenFields(conditions, effective)
	return FilterSchemaFields(schema, hidden), hidden
}
