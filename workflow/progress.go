package workflow

import (
	"github.com/BaSui01/gtmflow/types"
)

// PreviousOutputsKey 执行器输入中保存先前节点输出的保留键（节点 ID → 输出）。
const PreviousOutputsKey = "_previousOutputs"

// ExecutionProgress 单个节点的一次状态迁移。瞬态，不持久化。
type ExecutionProgress struct {
	NodeID    string           `json:"nodeId"`
	Status    types.NodeStatus `json:"status"`
	Output    types.FormData   `json:"output,omitempty"`
	Error     string           `json:"error,omitempty"`
	StartTime int64            `json:"startTime,omitempty"` // Unix 毫秒
	EndTime   int64            `json:"endTime,omitempty"`   // Unix 毫秒
}

// ProgressFunc 进度回调。在 Run 的 goroutine 上同步调用。
type ProgressFunc func(ExecutionProgress)

// ExecutionResult 一次运行的汇总结果。
type ExecutionResult struct {
	RunID       string                    `json:"runId,omitempty"`
	Success     bool                      `json:"success"`
	Outputs     map[string]types.FormData `json:"outputs"`
	Errors      map[string]string         `json:"errors"`
	TotalTimeMs int64                     `json:"totalTime"`
	// Cancelled 运行在两个节点之间被取消；Success 仍只反映节点错误。
	Cancelled bool `json:"cancelled,omitempty"`
}

// PreviousOutputs 从执行器输入中取出先前节点的输出。
func PreviousOutputs(input types.FormData) map[string]any {
	m, _ := types.AsMap(input[PreviousOutputsKey])
	return m
}

// PreviousOutput 取出指定节点的输出。
func PreviousOutput(input types.FormData, nodeID string) (types.FormData, bool) {
	m, ok := types.AsMap(PreviousOutputs(input)[nodeID])
	if !ok {
		return nil, false
	}
	return types.FormData(m), true
}
