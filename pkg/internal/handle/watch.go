package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TriggerScan 手动触发一次监听目录扫描.已有扫描在跑时请求被合并丢弃，
// 响应中 triggered 为 false.
func (h *Handler) TriggerScan(c *gin.Context) {
	resp, err := h.watcher.TriggerScan(c.Request.Context())
	if err != nil {
		serverError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// WatchStatus 返回扫描器运行状态.
func (h *Handler) WatchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.watcher.Status())
}
