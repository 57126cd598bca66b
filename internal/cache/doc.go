// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
包 cache 封装 go-redis 客户端，为 Redis 存储后端提供带键前缀的读写接口。

# 核心类型

  - Manager：持有 Redis 客户端与连接池配置，提供 Get/Set/Delete/Exists/Ping，
    以及 GetJSON/SetJSON 便捷方法；后台定时健康检查，Close 时停止
  - Config：地址、密码、库号、键前缀、默认 TTL（0 为永不过期）与连接池参数
  - HitRecorder：命中/未命中计数回调，由 internal/metrics.Collector 实现

未命中返回 ErrCacheMiss，可用 IsCacheMiss 判断。
*/
package cache
