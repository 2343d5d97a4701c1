package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/receiptvault/pkg/internal/handle"
)

// registerWatchRoutes 注册监听目录扫描路由.
func registerWatchRoutes(g *gin.RouterGroup, h *handle.Handler) {
	watch := g.Group("/watch")
	{
		watch.POST("/scan", h.TriggerScan)
		watch.GET("/status", h.WatchStatus)
	}
}
