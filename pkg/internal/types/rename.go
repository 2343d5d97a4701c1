package types

// FileRename 单个文件的重命名结果，调用方持久化后元数据即与磁盘一致.
type FileRename struct {
	FileID      uint   `json:"file_id"`
	OldFilename string `json:"old_filename"`
	NewFilename string `json:"new_filename"`
	Moved       bool   `json:"moved"` // 物理移动是否发生（MissingSource 时为 false）
}

// RenameReceiptRequest 单票据重命名请求.PrevOwner/PrevDate 为变更前的取值，
// 留空表示目录未变化；Pattern 留空使用当前生效模板.
type RenameReceiptRequest struct {
	Pattern   string `json:"pattern,omitempty"`
	PrevOwner string `json:"prev_owner,omitempty"`
	PrevDate  string `json:"prev_date,omitempty"`
}

// RenameReceiptResponse 单票据重命名响应.
type RenameReceiptResponse struct {
	ReceiptID uint         `json:"receipt_id"`
	Renames   []FileRename `json:"renames"`
	Errors    []ItemError  `json:"errors"`
}

// ItemError 批量操作中单项失败的描述.失败不终止批次.
type ItemError struct {
	ID     uint   `json:"id,omitempty"`
	Target string `json:"target,omitempty"`
	Error  string `json:"error"`
}

// RenameAllResult 全量重命名汇总.
type RenameAllResult struct {
	TotalReceipts int         `json:"total_receipts"`
	TotalFiles    int         `json:"total_files"`
	Renamed       int         `json:"renamed"`
	Errors        []ItemError `json:"errors"`
}

// MigrateResult 旧目录结构迁移汇总.
type MigrateResult struct {
	ScannedDirs int         `json:"scanned_dirs"`
	MovedFiles  int         `json:"moved_files"`
	RemovedDirs int         `json:"removed_dirs"`
	Errors      []ItemError `json:"errors"`
}

// RecoverResult 文件-元数据关联恢复汇总.
type RecoverResult struct {
	ScannedFiles int         `json:"scanned_files"`
	Recovered    int         `json:"recovered"`
	Skipped      int         `json:"skipped"`
	Errors       []ItemError `json:"errors"`
}
