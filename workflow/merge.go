package workflow

import (
	"github.com/BaSui01/gtmflow/types"
)

// PathTable 字段名 → 全局配置中的嵌套路径。
// 未在表中声明的字段只能通过全局配置上的同名键级联。
type PathTable map[string][]string

// DefaultPathTable 返回内置映射，对应全局配置 schema 的 brandVoice / seoStrategy 分区。
func DefaultPathTable() PathTable {
	return PathTable{
		"tone":              {"brandVoice", "tone"},
		"guidelines":        {"brandVoice", "guidelines"},
		"personality":       {"brandVoice", "personality"},
		"keywords":          {"seoStrategy", "primaryKeywords"},
		"secondaryKeywords": {"seoStrategy", "secondaryKeywords"},
	}
}

// Clone 复制映射表，调用方可在副本上扩展新的全局分区。
func (t PathTable) Clone() PathTable {
	out := make(PathTable, len(t))
	for field, path := range t {
		out[field] = append([]string(nil), path...)
	}
	return out
}

// Merger 将全局配置单向级联进节点数据。
// 纯函数语义：相同输入总是得到相同输出，不修改任何入参。
type Merger struct {
	paths PathTable
}

// NewMerger 创建 Merger；paths 为 nil 时使用 DefaultPathTable。
func NewMerger(paths PathTable) *Merger {
	if paths == nil {
		paths = DefaultPathTable()
	}
	return &Merger{paths: paths.Clone()}
}

var defaultMerger = NewMerger(nil)

// MergeGlobalConfig 使用默认映射表执行 Merge。
func MergeGlobalConfig(global, nodeData types.FormData, schema *types.AgentSchema) types.FormData {
	return defaultMerger.Merge(global, nodeData, schema)
}

// Merge 计算节点的有效表单数据。
//
//   - global 为空：原样返回 nodeData（nodeData 缺失时返回空映射）
//   - nodeData 缺失或为空映射：返回空映射，全局配置只填补已初始化节点的空缺
//   - 数组字段：全局元素在前，按规范 JSON 去重取并集
//   - 其他字段：节点值缺失 / null / "" 时采用全局候选值，否则节点优先
func (m *Merger) Merge(global, nodeData types.FormData, schema *types.AgentSchema) types.FormData {
	if len(global) == 0 {
		if nodeData == nil {
			return types.FormData{}
		}
		return nodeData
	}
	if len(nodeData) == 0 {
		return types.FormData{}
	}

	result := make(types.FormData, len(nodeData))
	for k, v := range nodeData {
		result[k] = v
	}
	if schema == nil || schema.Schema == nil {
		return result
	}

	for field, prop := range schema.Schema.Properties {
		candidate, ok := m.candidate(global, field)
		if !ok {
			continue
		}

		nodeValue, present := nodeData[field]

		if prop != nil && prop.Type == types.SchemaTypeArray {
			globalItems, ok := types.AsSlice(candidate)
			if !ok {
				// 声明为数组但全局值不是数组：无法求并集，保持节点值
				continue
			}
			var nodeItems []any
			if present && nodeValue != nil {
				nodeItems, ok = types.AsSlice(nodeValue)
				if !ok {
					continue
				}
			}
			result[field] = unionByCanonicalJSON(globalItems, nodeItems)
			continue
		}

		if !present || types.IsBlank(nodeValue) {
			result[field] = types.CloneValue(candidate)
		}
	}

	return result
}

// candidate 先查同名键，再查映射表路径。
func (m *Merger) candidate(global types.FormData, field string) (any, bool) {
	if v, ok := global[field]; ok {
		return v, true
	}
	path, ok := m.paths[field]
	if !ok {
		return nil, false
	}
	return types.LookupPath(map[string]any(global), path)
}

// unionByCanonicalJSON 保序并集，首次出现者保留。
func unionByCanonicalJSON(lists ...[]any) []any {
	seen := make(map[string]struct{})
	out := make([]any, 0)
	for _, list := range lists {
		for _, item := range list {
			key := types.CanonicalJSON(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, types.CloneValue(item))
		}
	}
	return out
}
