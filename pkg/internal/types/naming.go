// Package types 定义 HTTP 层的请求与响应结构.
package types

// GetPatternResponse 查询当前命名模板响应.
type GetPatternResponse struct {
	Pattern string `json:"pattern"`
}

// SetPatternRequest 更新命名模板请求.
type SetPatternRequest struct {
	Pattern string `binding:"required" json:"pattern"`
}

// SetPatternResponse 更新命名模板响应.
type SetPatternResponse struct {
	Pattern string `json:"pattern"`
	Applied bool   `json:"applied"`
}
