package types

// OptimizeBatchResult 批量图片优化汇总.
type OptimizeBatchResult struct {
	Total     int         `json:"total"`
	Optimized int         `json:"optimized"`
	Skipped   int         `json:"skipped"`
	Errors    []ItemError `json:"errors"`
}
