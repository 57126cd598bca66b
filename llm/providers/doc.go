// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
# 概述

包 providers 提供各模型服务适配共享的基础能力：配置结构、
HTTP 错误到 llm.Error 的映射，以及带重试的 Provider 包装器。

# 核心类型

  - BaseProviderConfig - APIKey、BaseURL、Model、Timeout
  - GeminiConfig       - Gemini Provider 配置
  - RetryableProvider  - 基于 llm/retry 的 Completion 重试包装

# 核心函数

  - MapHTTPError     - HTTP 状态码 → llm.Error（含 Retryable 标记）
  - ReadErrorMessage - 解析上游错误响应体
  - ChooseModel      - 按优先级选择模型（请求 > 默认 > 兜底）
*/
package providers
