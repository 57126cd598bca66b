// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，为 GTMFlow 提供
// 集中式的 TracerProvider 和 MeterProvider 配置。工作流引擎与 HTTP 中间件
// 通过 Providers.Tracer 获取 tracer。遥测禁用时使用 noop 实现，不连接任何外部服务。
package telemetry
