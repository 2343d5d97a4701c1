package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/receiptvault/pkg/internal/model"
)

// 本文件实现引擎消费的窄元数据契约：读取票据/文件/标签，写回文件名、
// 优化标记和新行.其余 CRUD 属于外部协作方.

// GetReceipt 按 ID 加载票据及其标签和文件.
func (e *Engine) GetReceipt(ctx context.Context, id uint) (*model.Receipt, error) {
	var r model.Receipt

	err := e.db(ctx).Preload("Tags").Preload("Files", func(db *gormDB) *gormDB {
		return db.Order("file_order ASC")
	}).First(&r, id).Error
	if err != nil {
		return nil, fmt.Errorf("load receipt %d: %w", id, err)
	}

	return &r, nil
}

// ListReceipts 返回全部票据（含标签与文件），按 ID 升序.
func (e *Engine) ListReceipts(ctx context.Context) ([]model.Receipt, error) {
	var receipts []model.Receipt

	err := e.db(ctx).Preload("Tags").Preload("Files", func(db *gormDB) *gormDB {
		return db.Order("file_order ASC")
	}).Order("id ASC").Find(&receipts).Error
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	return receipts, nil
}

// ListFilesOf 返回票据的文件行，按序号升序.
func (e *Engine) ListFilesOf(ctx context.Context, receiptID uint) ([]model.ReceiptFile, error) {
	var files []model.ReceiptFile

	err := e.db(ctx).Where("receipt_id = ?", receiptID).Order("file_order ASC").Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list files of receipt %d: %w", receiptID, err)
	}

	return files, nil
}

// SetFilename 写回文件的当前磁盘文件名.
func (e *Engine) SetFilename(ctx context.Context, fileID uint, newName string) error {
	err := e.db(ctx).Model(&model.ReceiptFile{}).Where("id = ?", fileID).
		Update("filename", newName).Error
	if err != nil {
		return fmt.Errorf("set filename of file %d: %w", fileID, err)
	}

	return nil
}

// InsertFile 插入新的文件行.
func (e *Engine) InsertFile(ctx context.Context, file *model.ReceiptFile) error {
	if err := e.db(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("insert file for receipt %d: %w", file.ReceiptID, err)
	}

	return nil
}

// DeleteFileRow 删除文件行.
func (e *Engine) DeleteFileRow(ctx context.Context, fileID uint) error {
	if err := e.db(ctx).Delete(&model.ReceiptFile{}, fileID).Error; err != nil {
		return fmt.Errorf("delete file row %d: %w", fileID, err)
	}

	return nil
}

// GetFile 按 ID 加载单个文件行.
func (e *Engine) GetFile(ctx context.Context, fileID uint) (*model.ReceiptFile, error) {
	var f model.ReceiptFile
	if err := e.db(ctx).First(&f, fileID).Error; err != nil {
		return nil, fmt.Errorf("load file %d: %w", fileID, err)
	}

	return &f, nil
}

// MarkOptimized 标记文件已优化.
func (e *Engine) MarkOptimized(ctx context.Context, fileID uint) error {
	now := time.Now()

	err := e.db(ctx).Model(&model.ReceiptFile{}).Where("id = ?", fileID).
		Updates(map[string]any{"is_optimized": true, "optimized_at": &now}).Error
	if err != nil {
		return fmt.Errorf("mark file %d optimized: %w", fileID, err)
	}

	return nil
}

// ResetOptimized 清除全部文件的优化标记，re-optimize 前调用.
func (e *Engine) ResetOptimized(ctx context.Context) error {
	err := e.db(ctx).Model(&model.ReceiptFile{}).Where("is_optimized = ?", true).
		Updates(map[string]any{"is_optimized": false, "optimized_at": nil}).Error
	if err != nil {
		return fmt.Errorf("reset optimized flags: %w", err)
	}

	return nil
}

// ListTags 返回全部标签.
func (e *Engine) ListTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := e.db(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return tags, nil
}

// EnsureTag 按名称取回标签，不存在则创建.并发下唯一索引兜底.
func (e *Engine) EnsureTag(ctx context.Context, name string) (*model.Tag, error) {
	var tag model.Tag

	err := e.db(ctx).Where("name = ?", name).
		FirstOrCreate(&tag, model.Tag{Name: name}).Error
	if err != nil {
		return nil, fmt.Errorf("ensure tag %q: %w", name, err)
	}

	return &tag, nil
}

// CreateReceipt 创建票据（导入路径使用）.
func (e *Engine) CreateReceipt(ctx context.Context, r *model.Receipt) error {
	r.RefreshTagsJSON()

	if err := e.db(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}

	return nil
}
