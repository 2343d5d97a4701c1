package types

import "time"

// ReceiptFileInfo 文件元数据视图.
type ReceiptFileInfo struct {
	ID               uint       `json:"id"`
	ReceiptID        uint       `json:"receipt_id"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	FileOrder        int        `json:"file_order"`
	Size             int64      `json:"size"`
	IsOptimized      bool       `json:"is_optimized"`
	OptimizedAt      *time.Time `json:"optimized_at,omitempty"`
}

// UploadFileResponse 上传文件响应.
type UploadFileResponse struct {
	File    ReceiptFileInfo `json:"file"`
	Path    string          `json:"path"`
	Success bool            `json:"success"`
}
