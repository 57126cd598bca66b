// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
包 generate 提供 Agent 执行器使用的文本/JSON 生成能力。

# 核心接口

  - Generator         - GenerateText / GenerateJSON / Available
  - ProviderGenerator - 基于 llm.Provider（Gemini）的本地实现
  - HTTPGenerator     - 调用远端 POST /api/ai/generate 的客户端实现

# JSON 生成

GenerateJSON 在提示词末尾追加"仅返回 JSON"的指令（以及可选的 schema 提示），
去除响应中的 ```json / ``` 代码围栏后解析。解析失败返回 INVALID_JSON，
原始文本保存在 types.Error.Raw 中。

# 提示词限制

提示词为空返回 INVALID_REQUEST（"Invalid prompt"），
超过 MaxPromptChars（默认 50,000 字符）返回 PROMPT_TOO_LONG。
*/
package generate
