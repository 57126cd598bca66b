package workflow

import (
	"time"

	"github.com/BaSui01/gtmflow/types"
)

// 以下函数均返回新的工作流，不修改入参。UI 层与执行引擎通过同一组函数
// 更新各自拥有的字段：表单数据 / 全局配置归编辑方，状态与 lastModified 归引擎。

// Timestamp 格式化为持久化使用的 ISO-8601（UTC，毫秒精度）。
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// UpdateNodeFormData 替换节点表单数据，状态置为 configured 并刷新 lastModified。
// 节点不存在时返回未改动的副本。
func UpdateNodeFormData(wf *types.Workflow, nodeID string, data types.FormData, now time.Time) *types.Workflow {
	out := wf.Clone()
	if node, _ := out.Node(nodeID); node != nil {
		node.FormData = data.Clone()
		node.Status = types.NodeStatusConfigured
		node.LastModified = Timestamp(now)
	}
	return out
}

// UpdateGlobalConfig 替换全局配置。
func UpdateGlobalConfig(wf *types.Workflow, cfg types.FormData) *types.Workflow {
	out := wf.Clone()
	out.GlobalConfig = cfg.Clone()
	return out
}

// UpdateNodeConditions 替换节点的可见性条件。
func UpdateNodeConditions(wf *types.Workflow, nodeID string, conditions []types.Condition) *types.Workflow {
	out := wf.Clone()
	if node, _ := out.Node(nodeID); node != nil {
		node.Conditions = types.WorkflowNode{Conditions: conditions}.Clone().Conditions
	}
	return out
}

// ApplyProgress 将一次进度事件应用到工作流：更新节点状态，终态时刷新 lastModified。
func ApplyProgress(wf *types.Workflow, p ExecutionProgress) *types.Workflow {
	out := wf.Clone()
	node, _ := out.Node(p.NodeID)
	if node == nil {
		return out
	}
	node.Status = p.Status
	if p.Status.IsTerminal() && p.EndTime > 0 {
		node.LastModified = Timestamp(time.UnixMilli(p.EndTime))
	}
	return out
}

// ResetStatuses 运行前复位：有表单数据的节点为 configured，其余为 pending。
func ResetStatuses(wf *types.Workflow) *types.Workflow {
	out := wf.Clone()
	for i := range out.Nodes {
		if len(out.Nodes[i].FormData) > 0 {
			out.Nodes[i].Status = types.NodeStatusConfigured
		} else {
			out.Nodes[i].Status = types.NodeStatusPending
		}
	}
	return out
}

// NewNode 由 Agent schema 创建节点：pending 状态、无表单数据，agentName 为当时的 schema 名称。
func NewNode(id string, schema *types.AgentSchema) types.WorkflowNode {
	return types.WorkflowNode{
		ID:        id,
		AgentID:   schema.ID,
		AgentName: schema.Name,
		Status:    types.NodeStatusPending,
	}
}

// AppendNode 在末尾追加节点。
func AppendNode(wf *types.Workflow, node types.WorkflowNode) *types.Workflow {
	out := wf.Clone()
	out.Nodes = append(out.Nodes, node.Clone())
	return out
}

// RemoveNode 删除节点；不存在时返回未改动的副本。
func RemoveNode(wf *types.Workflow, nodeID string) *types.Workflow {
	out := wf.Clone()
	if _, idx := out.Node(nodeID); idx >= 0 {
		out.Nodes = append(out.Nodes[:idx], out.Nodes[idx+1:]...)
	}
	return out
}
