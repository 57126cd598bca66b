package types

// NodeStatus 节点状态。
type NodeStatus string

const (
	NodeStatusPending    NodeStatus = "pending"
	NodeStatusConfigured NodeStatus = "configured"
	NodeStatusRunning    NodeStatus = "running"
	NodeStatusCompleted  NodeStatus = "completed"
	NodeStatusFailed     NodeStatus = "failed"
)

// IsTerminal reports whether the status ends a node execution.
func (s NodeStatus) IsTerminal() bool {
	return s == NodeStatusCompleted || s == NodeStatusFailed
}

// ConditionOperator 条件运算符。
type ConditionOperator string

const (
	OperatorEquals    ConditionOperator = "equals"
	OperatorNotEquals ConditionOperator = "notEquals"
	OperatorExists    ConditionOperator = "exists"
	OperatorNotExists ConditionOperator = "notExists"
)

// ConditionActionType 条件动作。
type ConditionActionType string

const (
	ActionShowFields ConditionActionType = "showFields"
	ActionHideFields ConditionActionType = "hideFields"
)

// ConditionAction 条件成立（或不成立）时作用的字段集合。
type ConditionAction struct {
	Type   ConditionActionType `json:"type"`
	Fields []string            `json:"fields"`
}

// Condition 单字段可见性谓词。没有布尔组合。
type Condition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    any               `json:"value,omitempty"`
	Action   ConditionAction   `json:"action"`
}

// WorkflowNode 工作流中一个已配置的 Agent 实例。
type WorkflowNode struct {
	ID               string      `json:"id"`
	AgentID          string      `json:"agentId"`
	AgentName        string      `json:"agentName"`
	Status           NodeStatus  `json:"status"`
	FormData         FormData    `json:"formData,omitempty"`
	LastModified     string      `json:"lastModified,omitempty"`
	Conditions       []Condition `json:"conditions,omitempty"`
	RequiresApproval bool        `json:"requiresApproval,omitempty"`
}

// Clone 深拷贝节点。
func (n WorkflowNode) Clone() WorkflowNode {
	out := n
	out.FormData = n.FormData.Clone()
	if n.Conditions != nil {
		out.Conditions = make([]Condition, len(n.Conditions))
		for i, c := range n.Conditions {
			c.Value = CloneValue(c.Value)
			c.Action.Fields = append([]string(nil), c.Action.Fields...)
			out.Conditions[i] = c
		}
	}
	return out
}

// Workflow 有序节点序列 + 可选全局配置；执行与持久化的基本单位。
type Workflow struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	GlobalConfig FormData       `json:"globalConfig,omitempty"`
	Nodes        []WorkflowNode `json:"nodes"`
}

// Clone 深拷贝工作流，执行引擎据此获得运行期快照。
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	out := *w
	out.GlobalConfig = w.GlobalConfig.Clone()
	if w.Nodes != nil {
		out.Nodes = make([]WorkflowNode, len(w.Nodes))
		for i, n := range w.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	return &out
}

// Node 按 ID 查找节点，返回其下标；未找到返回 -1。
func (w *Workflow) Node(id string) (*WorkflowNode, int) {
	if w == nil {
		return nil, -1
	}
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i], i
		}
	}
	return nil, -1
}

// StoredWorkflow 附带最后修改时间的工作流（LoadAll 的返回元素）。
type StoredWorkflow struct {
	*Workflow
	LastModified string `json:"lastModified,omitempty"`
}
