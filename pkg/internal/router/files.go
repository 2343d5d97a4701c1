package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/receiptvault/pkg/internal/handle"
)

// registerFileRoutes 注册文件存储、重命名与批量维护路由.
//
//	POST   /receipts/:id/files   -> 上传文件到票据
//	GET    /receipts/:id/files   -> 列出票据文件
//	POST   /receipts/:id/rename  -> 字段变更后重新解析该票据的文件路径
//	GET    /files/:id            -> 下载
//	DELETE /files/:id            -> 删除
//	POST   /files/rename-all     -> 全库重放命名模板
//	POST   /files/migrate-legacy -> 迁移旧目录结构
//	POST   /files/recover        -> 关联恢复
//	POST   /images/optimize      -> 批量优化
//	POST   /images/reoptimize    -> 重置标记后重新优化
func registerFileRoutes(g *gin.RouterGroup, h *handle.Handler) {
	receipts := g.Group("/receipts")
	{
		receipts.POST("/:id/files", h.UploadFile)
		receipts.GET("/:id/files", h.ListFiles)
		receipts.POST("/:id/rename", h.RenameReceipt)
	}

	files := g.Group("/files")
	{
		files.GET("/:id", h.DownloadFile)
		files.DELETE("/:id", h.DeleteFile)
		files.POST("/rename-all", h.RenameAll)
		files.POST("/migrate-legacy", h.MigrateLegacy)
		files.POST("/recover", h.RecoverAssociations)
	}

	images := g.Group("/images")
	{
		images.POST("/optimize", h.OptimizeBatch)
		images.POST("/reoptimize", h.ReoptimizeBatch)
	}
}
