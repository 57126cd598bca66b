package workflow

import (
	"fmt"

	"github.com/BaSui01/gtmflow/types"
)

// ValidateWorkflow 返回工作流结构问题列表；为空表示合法。
func ValidateWorkflow(wf *types.Workflow) []string {
	if wf == nil {
		return []string{"Workflow is required"}
	}

	var errs []string
	if wf.ID == "" {
		errs = append(errs, "Workflow must have an ID")
	}
	if wf.Name == "" {
		errs = append(errs, "Workflow must have a name")
	}
	if len(wf.Nodes) == 0 {
		errs = append(errs, "Workflow must have at least one node")
	}

	seen := make(map[string]bool, len(wf.Nodes))
	for i, node := range wf.Nodes {
		if node.ID == "" {
			errs = append(errs, fmt.Sprintf("Node at index %d is missing an ID", i))
		} else if seen[node.ID] {
			errs = append(errs, fmt.Sprintf("Duplicate node ID: %s", node.ID))
		}
		seen[node.ID] = true

		if node.AgentID == "" {
			label := node.ID
			if label == "" {
				label = fmt.Sprint(i)
			}
			errs = append(errs, fmt.Sprintf("Node %s is missing agentId", label))
		}
	}
	return errs
}

// Validate 同 ValidateWorkflow，以 VALIDATION 错误形式返回。
func Validate(wf *types.Workflow) error {
	if errs := ValidateWorkflow(wf); len(errs) > 0 {
		return types.NewValidationError(errs...)
	}
	return nil
}
