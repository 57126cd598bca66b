package fixtures

import (
	"github.com/BaSui01/gtmflow/types"
)

// =============================================================================
// 🧩 工作流样例
// =============================================================================

// MinimalWorkflow 返回只有一个节点的工作流
func MinimalWorkflow(id string) *types.Workflow {
	return &types.Workflow{
		ID:          id,
		Name:        "Minimal " + id,
		Description: "single node",
		Nodes: []types.WorkflowNode{
			{ID: "node-1", AgentID: "content-research", AgentName: "Content Research", Status: types.NodeStatusPending},
		},
	}
}

// TwoStepWorkflow 返回两个节点的工作流，agent 类型可自定义
func TwoStepWorkflow(id, firstAgent, secondAgent string) *types.Workflow {
	return &types.Workflow{
		ID:   id,
		Name: "Two Step",
		Nodes: []types.WorkflowNode{
			{ID: "step-1", AgentID: firstAgent, AgentName: firstAgent, Status: types.NodeStatusConfigured,
				FormData: types.FormData{"topic": "launch"}},
			{ID: "step-2", AgentID: secondAgent, AgentName: secondAgent, Status: types.NodeStatusPending},
		},
	}
}

// WorkflowWithGlobalConfig 返回带全局配置的单节点工作流
func WorkflowWithGlobalConfig(id string) *types.Workflow {
	wf := MinimalWorkflow(id)
	wf.GlobalConfig = types.FormData{
		"brandVoice":     map[string]any{"tone": "friendly"},
		"targetAudience": []any{"founders"},
		"seoStrategy":    map[string]any{"primaryKeywords": []any{"gtm"}},
	}
	return wf
}

// ImportJSON 一个可以被 Store.Import 接受的 JSON 文档
const ImportJSON = `{
  "id": "imported-1",
  "name": "Imported Workflow",
  "description": "from file",
  "nodes": [
    {"id": "node-1", "agentId": "blog-writer", "agentName": "Blog Writer", "status": "pending"}
  ]
}`

// InvalidStructureJSON 合法 JSON 但缺少 name
const InvalidStructureJSON = `{"id": "broken", "nodes": []}`
