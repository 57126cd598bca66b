package workflow

import (
	"github.com/BaSui01/gtmflow/types"
)

// SchemaSource 按 Agent 类型 ID 查 schema，由 catalog.Catalog 实现。
type SchemaSource interface {
	Get(agentID string) (*types.AgentSchema, bool)
}

// NodeView 节点的派生视图：合并后的有效数据、隐藏字段与过滤后的 schema。
// 每次按需计算，从不持久化。
type NodeView struct {
	NodeID    string             `json:"nodeId"`
	AgentID   string             `json:"agentId"`
	Effective types.FormData     `json:"effective"`
	Hidden    []string           `json:"hidden"`
	Schema    *types.AgentSchema `json:"schema,omitempty"`
}

// ResolveNodeView 计算节点的有效数据与可见 schema。
// 条件针对合并后的数据求值；节点或 schema 不存在时返回 NOT_FOUND。
func ResolveNodeView(wf *types.Workflow, nodeID string, schemas SchemaSource, merger *Merger) (*NodeView, error) {
	node, _ := wf.Node(nodeID)
	if node == nil {
		return nil, types.NewNotFoundError("node", nodeID)
	}
	schema, ok := schemas.Get(node.AgentID)
	if !ok {
		return nil, types.NewNotFoundError("agent", node.AgentID)
	}
	if merger == nil {
		merger = defaultMerger
	}

	effective := merger.Merge(wf.GlobalConfig, node.FormData, schema)
	visible, hidden := VisibleSchema(schema, node.Conditions, effective)

	fields := hidden.Fields()
	if fields == nil {
		fields = []string{}
	}
	return &NodeView{
		NodeID:    node.ID,
		AgentID:   node.AgentID,
		Effective: effective,
		Hidden:    fields,
		Schema:    visible,
	}, nil
}
