// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 GTMFlow HTTP API 的请求处理器实现。

# 概述

所有 Handler 均基于标准 net/http，路由使用 Go 1.22 的 "METHOD /path/{param}" 模式，
由各 Handler 的 Register 方法挂载到 http.ServeMux。

# 核心类型

  - WorkflowHandler  - 工作流 CRUD、导入导出、节点与全局配置编辑、节点有效配置视图
  - RunHandler       - 工作流运行，支持 JSON、SSE（text/event-stream）与 WebSocket 进度流
  - AgentHandler     - Agent 目录、单个 Agent Schema 与全局配置 Schema
  - GenerateHandler  - 服务端生成代理，密钥不出服务端
  - HealthHandler    - /health、/healthz、/ready 与版本信息
  - Response         - 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo        - 结构化错误信息（code、kind、message、details）
  - ResponseWriter   - 包装 http.ResponseWriter，记录状态码并保留 Flush / Hijack

# 错误映射

types.Error 的错误码按 mapErrorCodeToHTTPStatus 映射为 HTTP 状态码；
错误自带 HTTPStatus 时以其为准。非 types.Error 一律返回 500 INTERNAL_ERROR，
不向客户端泄露内部错误文本。

# 运行互斥

同一工作流同时只允许一次运行，第二次请求在写出任何响应头之前返回 409 ALREADY_EXECUTING。
运行过程中的节点状态通过 storage.Workspace 写回，客户端断开不会中止状态持久化。
*/
package handlers
