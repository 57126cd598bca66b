// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
包 executors 提供 GTM 流水线内置的四个 Agent 执行器，分两个家族：

  - LLM 执行器  - 由 generate.Generator 驱动，研究/SEO/社交节点请求纯 JSON 输出，
    博客节点生成 Markdown 并从首个 "# " 标题提取 title
  - Mock 执行器 - 固定延迟（可按比例缩放）与由输入推导的确定性输出，用于演示与测试

两个家族的 Agent ID 一致：content-research、blog-writer、seo-optimizer、social-media。
执行器只通过 input 获取上下文，先前节点输出位于 input["_previousOutputs"]。

[NewRegistry] 根据 [Mode] 选择家族：auto 模式下生成能力可用时使用 LLM 执行器，
否则回退到 Mock 执行器。
*/
package executors
