// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
包 llm 提供文本/JSON 生成能力的接入层。

# 概述

[Provider] 屏蔽具体模型服务的请求格式与错误语义；目前内置 Gemini 实现
（见 llm/providers/gemini）。上层的 Agent 执行器不直接依赖 Provider，
而是通过 llm/generate 包中的 Generator 调用：

  - GenerateText(prompt)            - 返回纯文本
  - GenerateJSON(prompt, schemaHint) - 要求仅返回 JSON，剥离代码围栏后解析

# 错误

Provider 返回 [*Error]，[ToTypesError] 将其映射为 types.Error：
未配置密钥 → GENERATION_UNAVAILABLE，其余上游失败 → UPSTREAM_ERROR。
JSON 解析失败由 generate 包报告为 INVALID_JSON 并附带原始文本。

# 子包

  - llm/providers        - 共享配置与 HTTP 错误映射
  - llm/providers/gemini - Google Gemini generateContent 适配
  - llm/retry            - 指数退避重试
  - llm/generate         - Generator 接口与实现
*/
package llm
