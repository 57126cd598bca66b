// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

// Package config 提供 GTMFlow 的配置管理功能。
//
// 配置优先级：默认值 → YAML 文件 → .env 文件 → 环境变量（GTMFLOW_ 前缀）。
// .env 只补充尚未设置的环境变量，不会覆盖进程环境。
// GEMINI_API_KEY 作为 llm.api_key 的兜底来源。
package config
