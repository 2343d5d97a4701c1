// Package middleware 提供 gin 中间件：CORS、Prometheus 指标、zerolog 请求日志
// 和存储管理器注入.
package middleware
