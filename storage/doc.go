// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
包 storage 提供工作流的持久化：一个带版本号的信封保存在键值后端的固定键下。

# 信封格式

	{
	  "version": "1.0",
	  "workflows":    { "<id>": Workflow },
	  "lastModified": { "<id>": "2024-05-01T12:30:00.000Z" }
	}

首次访问时惰性初始化为空信封；版本号不一致时重新初始化（记录告警），
内容无法解析时返回 STORAGE 错误，不会返回部分数据。

# 后端（Substrate）

  - memory   - 进程内 map，可设置字节配额模拟 quota exceeded
  - file     - 每个键一个 JSON 文件，临时文件 + rename 原子写
  - redis    - 通过 internal/cache.Manager 读写
  - database - 通过 GORM 写入 workflow_kv 表（postgres / mysql / sqlite）

由 NewSubstrate 按 Config.Driver 选择。

# Store

Save 总是整体覆盖并记录当前时间，后写者胜出；Import 只做最小校验
（id、name、nodes 必须存在），失败时不写入任何内容。

# AutoSaver

尾沿防抖：每次 Observe 取消同一工作流的待执行保存并以最新快照重新计时（默认 2s），
每个工作流 ID 至多一个活动定时器。保存失败只记录日志与指标，内存状态不受影响。
定时通过 Scheduler 抽象注入，测试可使用 testutil.FakeScheduler 精确推进时间。

# Workspace

HTTP 层使用的编辑入口：Update 以函数式更新修改工作流并交给 AutoSaver，
防抖窗口内的读取返回未落盘的草稿；Replace、Delete、Import 直接写入 Store
并取消同一工作流的待保存项。
*/
package storage
