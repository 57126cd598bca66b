// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 GTMFlow 服务端程序入口。

# 概述

cmd/gtmflow 是 GTMFlow 的可执行入口，提供 HTTP API 服务、命令行运行工作流、
导入导出、数据库迁移、健康检查和版本查询等子命令。配置按
默认值 → YAML → .env → 环境变量 的顺序加载，日志使用 zap。

# 核心类型

  - App        - 子命令共享的依赖装配：存储后端、Workspace、生成器、执行器注册表、指标与遥测
  - Server     - 组装路由与中间件，管理 API 与 Metrics 两个监听端口
  - Middleware - HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve、run、export、import、migrate、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、RequestLogger、
    MetricsMiddleware、CORS、RateLimiter（基于 IP）、APIKeyAuth / JWTAuth
  - 存储驱动：memory、file、redis（go-redis）、database（GORM：postgres / mysql / sqlite）
  - 优雅关闭：signal.NotifyContext → 关闭监听 → 刷新自动保存草稿 → 关闭存储 → 关闭遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
