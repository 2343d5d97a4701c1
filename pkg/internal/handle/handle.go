// Package handle 提供 HTTP 请求处理器，桥接 gin 与命名引擎的业务逻辑.
package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/receiptvault/pkg/internal/model"
	"github.com/yeisme/receiptvault/pkg/internal/service"
	"github.com/yeisme/receiptvault/pkg/internal/types"
	"github.com/yeisme/receiptvault/pkg/log"
)

// Handler 持有注入的引擎和扫描器，处理器不读取进程级全局状态.
type Handler struct {
	engine  *service.Engine
	watcher *service.Watcher
}

// New 创建处理器集合.
func New(engine *service.Engine, watcher *service.Watcher) *Handler {
	return &Handler{engine: engine, watcher: watcher}
}

// paramID 解析路径中的数字 ID.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})

		return 0, false
	}

	return uint(id), true
}

// badRequest 记录并返回 400.
func badRequest(c *gin.Context, err error) {
	log.Logger().Warn().Err(err).Str("path", c.Request.URL.Path).Msg("invalid request")
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// serverError 记录并返回 500.
func serverError(c *gin.Context, err error) {
	log.Logger().Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// fileInfo 转换元数据行为响应视图.
func fileInfo(f *model.ReceiptFile) types.ReceiptFileInfo {
	return types.ReceiptFileInfo{
		ID:               f.ID,
		ReceiptID:        f.ReceiptID,
		Filename:         f.Filename,
		OriginalFilename: f.OriginalFilename,
		FileOrder:        f.FileOrder,
		Size:             f.Size,
		IsOptimized:      f.IsOptimized,
		OptimizedAt:      f.OptimizedAt,
	}
}
