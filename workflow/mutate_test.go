package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/gtmflow/catalog"
	"github.com/BaSui01/gtmflow/types"
)

var fixedNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func TestUpdateNodeFormData(t *testing.T) {
	wf := SampleWorkflow()
	data := types.FormData{"keywords": []any{"ai"}}

	updated := UpdateNodeFormData(wf, "node-3", data, fixedNow)

	node, _ := updated.Node("node-3")
	require.NotNil(t, node)
	assert.Equal(t, types.NodeStatusConfigured, node.Status)
	assert.Equal(t, "2024-05-01T12:30:00.000Z", node.LastModified)
	assert.Equal(t, data, node.FormData)

	// 原工作流未变
	orig, _ := wf.Node("node-3")
	assert.Equal(t, types.NodeStatusPending, orig.Status)
	assert.Nil(t, orig.FormData)

	// 未知节点
	same := UpdateNodeFormData(wf, "nope", data, fixedNow)
	assert.Equal(t, wf, same)
	assert.NotSame(t, wf, same)
}

func TestUpdateGlobalConfigAndConditions(t *testing.T) {
	wf := SampleWorkflow()
	cfg := types.FormData{"brandVoice": map[string]any{"tone": "bold"}}

	updated := UpdateGlobalConfig(wf, cfg)
	assert.Equal(t, cfg, updated.GlobalConfig)
	assert.Nil(t, wf.GlobalConfig)

	conds := []types.Condition{{Field: "tone", Operator: types.OperatorExists,
		Action: types.ConditionAction{Type: types.ActionHideFields, Fields: []string{"wordCount"}}}}
	updated = UpdateNodeConditions(updated, "node-2", conds)
	node, _ := updated.Node("node-2")
	assert.Equal(t, conds, node.Conditions)

	conds[0].Action.Fields[0] = "mutated"
	assert.Equal(t, "wordCount", node.Conditions[0].Action.Fields[0])
}

func TestApplyProgress(t *testing.T) {
	wf := SampleWorkflow()

	running := ApplyProgress(wf, ExecutionProgress{NodeID: "node-3", Status: types.NodeStatusRunning})
	node, _ := running.Node("node-3")
	assert.Equal(t, types.NodeStatusRunning, node.Status)
	assert.Empty(t, node.LastModified)

	done := ApplyProgress(running, ExecutionProgress{
		NodeID: "node-3", Status: types.NodeStatusCompleted, EndTime: fixedNow.UnixMilli(),
	})
	node, _ = done.Node("node-3")
	assert.Equal(t, types.NodeStatusCompleted, node.Status)
	assert.Equal(t, "2024-05-01T12:30:00.000Z", node.LastModified)

	assert.Equal(t, wf, ApplyProgress(wf, ExecutionProgress{NodeID: "ghost", Status: types.NodeStatusFailed}))
}

func TestResetStatuses(t *testing.T) {
	wf := SampleWorkflow()
	wf.Nodes[0].Status = types.NodeStatusCompleted
	wf.Nodes[2].Status = types.NodeStatusFailed

	reset := ResetStatuses(wf)
	got := make([]types.NodeStatus, len(reset.Nodes))
	for i, n := range reset.Nodes {
		got[i] = n.Status
	}
	assert.Equal(t, []types.NodeStatus{
		types.NodeStatusConfigured, types.NodeStatusConfigured,
		types.NodeStatusPending, types.NodeStatusPending,
	}, got)
}

func TestAppendAndRemoveNode(t *testing.T) {
	schema, ok := catalog.MustDefault().Get("email-marketing")
	require.True(t, ok)

	wf := AppendNode(SampleWorkflow(), NewNode("node-5", schema))
	require.Len(t, wf.Nodes, 5)
	assert.Equal(t, "Email Marketing", wf.Nodes[4].AgentName)
	assert.Equal(t, types.NodeStatusPending, wf.Nodes[4].Status)

	wf = RemoveNode(wf, "node-2")
	require.Len(t, wf.Nodes, 4)
	_, idx := wf.Node("node-2")
	assert.Equal(t, -1, idx)
}

// ---------------------------------------------------------------------------
// Validate / Export
// ---------------------------------------------------------------------------

func TestValidateWorkflow(t *testing.T) {
	assert.Empty(t, ValidateWorkflow(SampleWorkflow()))
	assert.NoError(t, Validate(SampleWorkflow()))

	bad := &types.Workflow{Nodes: []types.WorkflowNode{
		{ID: "a", AgentID: "x"},
		{ID: "a", AgentID: "y"},
		{AgentID: "z"},
		{ID: "c"},
	}}
	assert.Equal(t, []string{
		"Workflow must have an ID",
		"Workflow must have a name",
		"Duplicate node ID: a",
		"Node at index 2 is missing an ID",
		"Node c is missing agentId",
	}, ValidateWorkflow(bad))

	assert.Contains(t, ValidateWorkflow(&types.Workflow{ID: "x", Name: "y"}), "Workflow must have at least one node")

	err := Validate(bad)
	require.Error(t, err)
	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, types.KindValidation, e.Kind())
	assert.Len(t, e.Details, 5)
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name string
		wf   *types.Workflow
		want string
	}{
		{"display name", &types.Workflow{Name: "GTM Content Pipeline"}, "gtm-content-pipeline.json"},
		{"collapses whitespace", &types.Workflow{Name: "Q3   Launch\tPlan"}, "q3-launch-plan.json"},
		{"falls back to id", &types.Workflow{ID: "wf-9"}, "wf-9.json"},
		{"nil", nil, "workflow.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportFilename(tt.wf))
		})
	}
}

// ---------------------------------------------------------------------------
// Node view
// ---------------------------------------------------------------------------

func TestResolveNodeView(t *testing.T) {
	wf := SampleWorkflow()
	wf.GlobalConfig = types.FormData{
		"brandVoice":  map[string]any{"tone": "friendly"},
		"seoStrategy": map[string]any{"primaryKeywords": []any{"ai", "gtm"}},
	}
	wf = UpdateNodeFormData(wf, "node-2", types.FormData{
		"topic":    "Launch",
		"tone":     "",
		"keywords": []any{"gtm", "launch"},
	}, fixedNow)
	wf = UpdateNodeConditions(wf, "node-2", []types.Condition{{
		Field: "tone", Operator: types.OperatorEquals, Value: "friendly",
		Action: types.ConditionAction{Type: types.ActionHideFields, Fields: []string{"includeEmojis"}},
	}})

	view, err := ResolveNodeView(wf, "node-2", catalog.MustDefault(), nil)
	require.NoError(t, err)

	assert.Equal(t, "friendly", view.Effective["tone"])
	assert.Equal(t, []any{"ai", "gtm", "launch"}, view.Effective["keywords"])
	assert.Equal(t, []string{"includeEmojis"}, view.Hidden)
	assert.NotContains(t, view.Schema.Schema.Properties, "includeEmojis")

	_, err = ResolveNodeView(wf, "missing", catalog.MustDefault(), nil)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
}

func TestSampleWorkflow(t *testing.T) {
	wf := SampleWorkflow()
	assert.Equal(t, SampleWorkflowID, wf.ID)
	require.Len(t, wf.Nodes, 4)
	assert.Equal(t, []string{"content-research", "blog-writer", "seo-optimizer", "social-media"},
		[]string{wf.Nodes[0].AgentID, wf.Nodes[1].AgentID, wf.Nodes[2].AgentID, wf.Nodes[3].AgentID})

	// 每次返回独立实例
	wf.Nodes[0].FormData["topic"] = "changed"
	assert.Equal(t, "AI in Marketing", SampleWorkflow().Nodes[0].FormData["topic"])
}
