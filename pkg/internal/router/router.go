// Package router 管理路由配置，将路径绑定到 handle 包提供的处理器.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/receiptvault/pkg/internal/handle"
)

// Register 绑定全部业务路由到 gin 引擎.
func Register(engine *gin.Engine, h *handle.Handler) {
	api := engine.Group("/api/v1")

	registerNamingRoutes(api, h)
	registerFileRoutes(api, h)
	registerWatchRoutes(api, h)
	RegisterHealthCheckRoute(api)
}
