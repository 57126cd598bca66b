// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 GTMFlow 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试提供统一的辅助能力，避免重复实现相似的测试基础设施。

# 核心能力

  - 断言工具: AssertJSONEqual / AssertEventuallyTrue / WaitForChannel
  - 数据工具: MustJSON / MustParseJSON
  - 时间控制: FakeScheduler 同时充当时钟与 storage.Scheduler，
    Advance 按到期顺序同步触发定时回调，用于防抖测试

# 子包

  - testutil/mocks: MockProvider（llm.Provider）、MockGenerator（generate.Generator）、
    MockExecutor（types.Executor），均支持 Builder 模式与错误注入
  - testutil/fixtures: 工作流样例、Gemini 响应体与 ChatResponse 工厂

# 使用示例

	sched := testutil.NewFakeScheduler(time.Unix(0, 0))
	saver := storage.NewAutoSaver(store, nil, storage.WithScheduler(sched))
	saver.Observe(wf)
	sched.Advance(2 * time.Second)
*/
package testutil
