// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
包 server 提供 API 与 metrics 端口的 HTTP/HTTPS 服务器生命周期管理。

# 核心类型

  - Manager：封装 net/http.Server，提供 Start/Run/Shutdown 生命周期方法，
    异步错误通过 Errors() 传播。
  - Config：监听地址、超时与可选 TLS 证书；FromServerConfig 从应用配置
    构建，MetricsConfig 用于独立的 /metrics 端口。

# 行为

  - Start 非阻塞；证书与私钥均配置时以 HTTPS 启动，TLS 参数来自 tlsutil。
  - Run 阻塞到 ctx 取消或服务器异常退出，随后在 ShutdownTimeout 内优雅关闭。
  - Shutdown 幂等；关闭后不可再次 Start。
  - 写超时默认 5 分钟，覆盖整条工作流运行的 SSE 推送。
*/
package server
