// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 GTMFlow 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 catalog、workflow、storage、
api 等上层模块提供统一的类型契约，避免循环依赖。

# 核心类型

  - FormData / Value   - JSON 兼容的封闭值域（string/number/bool/null/数组/对象）
  - Workflow           - 有序节点序列 + 全局配置
  - WorkflowNode       - 节点：agentId、状态、表单数据、条件
  - Condition          - 单字段可见性谓词（equals/notEquals/exists/notExists）
  - AgentSchema        - Agent 输入的 JSON Schema、UI 提示与编辑能力
  - Executor / Named   - Agent 执行契约
  - Error / ErrorCode  - 结构化错误，带 Kind 分组（validation/executor/storage/not-found）

# 主要能力

  - Context 传播：WithTraceID / WithRequestID / WithRunID / WithWorkflowID
  - 错误工具链：AsError / IsErrorCode / ErrorKindOf / NewValidationError
  - 值工具：CanonicalJSON / StrictEqual / Normalize / LookupPath
*/
package types
