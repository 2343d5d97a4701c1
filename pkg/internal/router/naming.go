package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/receiptvault/pkg/internal/handle"
)

// registerNamingRoutes 注册命名模板配置路由.
func registerNamingRoutes(g *gin.RouterGroup, h *handle.Handler) {
	naming := g.Group("/naming")
	{
		naming.GET("/pattern", h.GetPattern)
		naming.PUT("/pattern", h.SetPattern)
	}
}
