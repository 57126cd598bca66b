// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP、工作流执行、
内容生成、工作流存储、缓存与数据库连接六个维度。

# 概述

Collector 通过 promauto 注册全部指标，默认注册到全局 registry，
测试或多实例场景可用 NewCollectorWithRegistry 指定独立 registry。
所有指标按 namespace 隔离。

# 接入点

Collector 的方法签名与各包定义的窄接口一致，装配时直接注入：

  - workflow.RunRecorder：RecordWorkflowRun / RecordNodeExecution
  - generate.Recorder：RecordGeneration
  - storage.Recorder：RecordStorageOperation
  - storage.AutoSaveRecorder：RecordAutosave
  - cache.HitRecorder：RecordCacheHit / RecordCacheMiss
  - database.StatsRecorder：RecordDBConnections

HTTP 指标由 cmd/gtmflow 的 MetricsMiddleware 调用 RecordHTTPRequest 记录，
状态码归类为 2xx/3xx/4xx/5xx。
*/
package metrics
