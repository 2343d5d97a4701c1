package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/receiptvault/pkg/internal/types"
)

// GetPattern 返回当前生效的命名模板.
func (h *Handler) GetPattern(c *gin.Context) {
	c.JSON(http.StatusOK, types.GetPatternResponse{
		Pattern: h.engine.GetPattern(c.Request.Context()),
	})
}

// SetPattern 校验并更新命名模板.非法模板同步拒绝并返回具体校验信息.
func (h *Handler) SetPattern(c *gin.Context) {
	var req types.SetPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	if err := h.engine.SetPattern(c.Request.Context(), req.Pattern); err != nil {
		badRequest(c, err)

		return
	}

	c.JSON(http.StatusOK, types.SetPatternResponse{Pattern: req.Pattern, Applied: true})
}
