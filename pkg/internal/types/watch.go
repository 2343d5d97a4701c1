package types

import "time"

// ScanResult 单次监听目录扫描的汇总.
type ScanResult struct {
	SessionID       string      `json:"session_id"`
	CreatedReceipts int         `json:"created_receipts"`
	StoredFiles     int         `json:"stored_files"`
	SkippedEntries  int         `json:"skipped_entries"`
	Errors          []ItemError `json:"errors"`
}

// WatchStatus 监听服务的运行状态.
type WatchStatus struct {
	Enabled    bool       `json:"enabled"`
	IsScanning bool       `json:"is_scanning"`
	LastScanAt *time.Time `json:"last_scan_at,omitempty"`
	NextScanAt *time.Time `json:"next_scan_at,omitempty"`
}

// TriggerScanResponse 手动触发扫描响应.扫描进行中时 Triggered 为 false.
type TriggerScanResponse struct {
	Triggered bool        `json:"triggered"`
	Result    *ScanResult `json:"result,omitempty"`
}
