// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
# 概述

包 gemini 提供 Google Gemini 的 Provider 适配实现，直接对接
Gemini REST API（generativelanguage.googleapis.com）。

# 核心结构体

  - GeminiProvider - 持有 http.Client 与 GeminiConfig；使用 x-goog-api-key 请求头认证
  - geminiRequest / geminiResponse - generateContent 请求/响应结构

# 支持能力

  - 同步生成（/v1beta/models/{model}:generateContent），默认模型 gemini-2.0-flash-exp
  - JSON 模式（responseMimeType: application/json）
  - HealthCheck（/v1beta/models）

未配置 API Key 时所有调用返回 LLM_PROVIDER_UNAVAILABLE。
*/
package gemini
