package workflow

import (
	"github.com/BaSui01/gtmflow/types"
)

// SampleWorkflowID 内置演示工作流 ID。
const SampleWorkflowID = "gtm-workflow-1"

// SampleWorkflow 返回演示用 GTM 内容流水线：调研 → 写作 → 优化 → 分发。
func SampleWorkflow() *types.Workflow {
	return &types.Workflow{
		ID:          SampleWorkflowID,
		Name:        "GTM Content Pipeline",
		Description: "Research → Write → Optimize → Distribute",
		Nodes: []types.WorkflowNode{
			{
				ID:        "node-1",
				AgentID:   "content-research",
				AgentName: "Content Research",
				Status:    types.NodeStatusConfigured,
				FormData: types.FormData{
					"topic":             "AI in Marketing",
					"depth":             "standard",
					"includeStatistics": true,
				},
			},
			{
				ID:        "node-2",
				AgentID:   "blog-writer",
				AgentName: "Blog Writer",
				Status:    types.NodeStatusConfigured,
				FormData: types.FormData{
					"topic":     "How AI is Transforming Marketing",
					"tone":      "professional",
					"wordCount": 1500.0,
				},
			},
			{
				ID:        "node-3",
				AgentID:   "seo-optimizer",
				AgentName: "SEO Optimizer",
				Status:    types.NodeStatusPending,
			},
			{
				ID:        "node-4",
				AgentID:   "social-media",
				AgentName: "Social Media",
				Status:    types.NodeStatusPending,
			},
		},
	}
}
