package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 批量操作一律返回"已完成 + errors[]"而不是全有全无：几千个文件的部分
// 进展严格好于整批中止.

// RenameAll 对全库重放当前命名模板.
func (h *Handler) RenameAll(c *gin.Context) {
	res, err := h.engine.RenameAll(c.Request.Context())
	if err != nil {
		serverError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// MigrateLegacy 迁移旧的 {receiptID}/ 目录结构.
func (h *Handler) MigrateLegacy(c *gin.Context) {
	res, err := h.engine.MigrateLegacyLayout(c.Request.Context())
	if err != nil {
		serverError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// RecoverAssociations 把磁盘上失联的文件匹配回票据元数据.
func (h *Handler) RecoverAssociations(c *gin.Context) {
	res, err := h.engine.RecoverAssociations(c.Request.Context())
	if err != nil {
		serverError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// OptimizeBatch 批量优化未打标记的位图文件.
func (h *Handler) OptimizeBatch(c *gin.Context) {
	res, err := h.engine.OptimizeBatch(c.Request.Context(), false)
	if err != nil {
		serverError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// ReoptimizeBatch 清空全部优化标记后重新优化.
func (h *Handler) ReoptimizeBatch(c *gin.Context) {
	res, err := h.engine.OptimizeBatch(c.Request.Context(), true)
	if err != nil {
		serverError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}
