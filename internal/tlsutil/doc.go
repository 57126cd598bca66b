// Package tlsutil 提供集中式 TLS 配置：出站 HTTP 客户端（Gemini 调用）
// 与 HTTPS 服务端共用同一组加固参数（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
