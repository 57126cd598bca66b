// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

// Package api 汇总 GTMFlow 对外暴露的 HTTP 接口。
//
// # API Overview
//
// GTMFlow 服务提供以下接口：
//   - 工作流的增删改查、导入导出与节点编辑
//   - 工作流运行（JSON 结果、SSE 或 WebSocket 进度流）
//   - Agent 目录与全局配置 Schema
//   - 服务端 AI 生成代理（POST /api/ai/generate）
//   - 健康检查与版本信息
//
// # Authentication
//
// 配置了 API Key 时，/api/ 下的接口需要携带请求头：
//
//	X-API-Key: your-api-key
//
// 配置了 JWT 密钥时也可以使用 Bearer Token（HS256）。
//
// # Base URL
//
//	http://localhost:8080
//
// # Response Envelope
//
// /api/v1 下的接口统一返回：
//
//	{"success": true, "data": {...}, "timestamp": "...", "request_id": "..."}
//	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, ...}
//
// /api/ai/generate 保持扁平响应体（{result} / {error, message}），
// 与 llm/generate.HTTPGenerator 的约定一致。
//
// 具体处理器见 api/handlers 子包。
package api
