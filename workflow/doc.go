// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
Package workflow 提供 GTM 内容流水线的编排核心。

# 概述

工作流是一个有序节点序列，每个节点是某个 Agent 类型的一次配置实例。
本包不处理任何界面渲染，只负责以下纯逻辑与执行：

  - Merger            - 全局配置单向级联进节点数据（数组求并集，标量节点优先）
  - EvaluateCondition - 单字段可见性谓词求值，未知运算符恒为 false
  - HiddenFields      - 条件列表 → 隐藏字段集合（隐藏一旦发生不会被撤销）
  - FilterSchemaFields - 按隐藏字段生成 schema 视图，不修改源 schema
  - Engine            - 顺序执行引擎，逐节点发出 pending → running → completed|failed
  - Registry          - Agent 类型 ID → Executor 注册表，每个 Engine 一份

# 执行语义

Engine.Run 基于调用时的快照执行。每个节点的输入是其表单数据加上保留键
_previousOutputs（先前所有节点的输出，按节点 ID 索引）。首个失败即终止，
后续节点不执行也不发出事件。同一 Engine 不支持并发 Run。

# 状态更新

UpdateNodeFormData、ApplyProgress 等函数总是返回新的工作流，
编辑方与执行引擎通过它们分别更新自己拥有的字段。
*/
package workflow
