package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/yeisme/receiptvault/pkg/internal/fsops"
	"github.com/yeisme/receiptvault/pkg/internal/model"
	"github.com/yeisme/receiptvault/pkg/internal/types"
	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// renamePlan 单文件重命名的状态机分支，由旧路径和新目标比较得出.
type renamePlan int

const (
	planUnchanged renamePlan = iota
	planRenameOnly
	planRelocate
	planMissingSource
	planDestinationCollision
)

// RenameOptions 单票据重命名的可选参数.
type RenameOptions struct {
	// Pattern 为空时使用当前生效模板
	Pattern string
	// PrevOwner/PrevDate 是本次元数据变更前的取值，用于定位旧目录.
	// 为空表示目录未变化.
	PrevOwner string
	PrevDate  string
}

// planFor 比较旧路径与新目标，决定状态机分支.
func planFor(oldPath, newPath string) renamePlan {
	if oldPath == newPath {
		return planUnchanged
	}

	if !fsops.Exists(oldPath) {
		return planMissingSource
	}

	if fsops.Exists(newPath) {
		return planDestinationCollision
	}

	if filepath.Dir(oldPath) == filepath.Dir(newPath) {
		return planRenameOnly
	}

	return planRelocate
}

// fileExt 文件扩展名，始终取自用户上传的原始文件名.
func fileExt(f *model.ReceiptFile) string {
	if ext := filepath.Ext(f.OriginalFilename); ext != "" {
		return ext
	}

	return filepath.Ext(f.Filename)
}

// renameOneFile 对单个文件执行状态机.返回结果与每文件错误；
// MissingSource 只前向更新元数据，不算错误.
func (e *Engine) renameOneFile(ctx context.Context, receipt *model.Receipt, file *model.ReceiptFile,
	pattern, oldDir string) (types.FileRename, error) {
	l := nlog.Logger()

	newFilename := e.resolver.FilenameFor(pattern, fieldsOf(receipt), receipt.ID, file.FileOrder, fileExt(file))
	newDir := e.resolver.DirectoryFor(receipt.Owner, receipt.Date)

	oldPath := filepath.Join(oldDir, file.Filename)
	newPath := filepath.Join(newDir, newFilename)

	result := types.FileRename{
		FileID:      file.ID,
		OldFilename: file.Filename,
		NewFilename: newFilename,
	}

	switch planFor(oldPath, newPath) {
	case planUnchanged:
		return result, nil

	case planMissingSource:
		// 磁盘文件已丢失：跳过物理移动，仍然写回新文件名，
		// 让索引保持前向一致.这是文档化行为，不是错误.
		l.Warn().Str("old", oldPath).Msg("source file missing, updating metadata only")

		if err := e.SetFilename(ctx, file.ID, newFilename); err != nil {
			return result, err
		}

		return result, nil

	case planDestinationCollision:
		// 目标被无关文件占用：跳过并保持旧状态，作为每文件错误上报
		l.Warn().Str("old", oldPath).Str("new", newPath).Msg("rename skipped: destination occupied")

		result.NewFilename = file.Filename

		return result, fmt.Errorf("destination already occupied: %s", newPath)

	case planRelocate:
		if err := e.resolver.EnsureDirectory(newDir); err != nil {
			return result, err
		}

		fallthrough

	default: // planRenameOnly
		if err := fsops.Move(oldPath, newPath); err != nil {
			return result, err
		}

		if err := e.SetFilename(ctx, file.ID, newFilename); err != nil {
			return result, err
		}

		result.Moved = true

		// 迁出后尽力清理旧目录
		fsops.RemoveDirIfEmpty(filepath.Dir(oldPath))

		return result, nil
	}
}

// RenameReceiptFiles 在票据的命名相关字段或标签集变更后，对其全部文件
// 重新解析路径并同步磁盘布局.返回每个文件的新旧文件名.
func (e *Engine) RenameReceiptFiles(ctx context.Context, receiptID uint, opts RenameOptions) ([]types.FileRename, []types.ItemError, error) {
	receipt, err := e.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, nil, err
	}

	pattern := opts.Pattern
	if pattern == "" {
		pattern = e.GetPattern(ctx)
	}

	prevOwner := opts.PrevOwner
	if prevOwner == "" {
		prevOwner = receipt.Owner
	}

	prevDate := opts.PrevDate
	if prevDate == "" {
		prevDate = receipt.Date
	}

	oldDir := e.resolver.DirectoryFor(prevOwner, prevDate)

	var (
		renames  []types.FileRename
		itemErrs []types.ItemError
	)

	for i := range receipt.Files {
		file := &receipt.Files[i]

		result, err := e.renameOneFile(ctx, receipt, file, pattern, oldDir)
		if err != nil {
			itemErrs = append(itemErrs, types.ItemError{ID: file.ID, Target: file.Filename, Error: err.Error()})

			continue
		}

		renames = append(renames, result)
	}

	return renames, itemErrs, nil
}

// RenameAll 对库中全部票据重放当前命名模板，逐文件执行状态机.
// 单项失败只记录，不中断剩余工作.
func (e *Engine) RenameAll(ctx context.Context) (*types.RenameAllResult, error) {
	receipts, err := e.ListReceipts(ctx)
	if err != nil {
		return nil, err
	}

	pattern := e.GetPattern(ctx)
	result := &types.RenameAllResult{
		TotalReceipts: len(receipts),
		Errors:        []types.ItemError{},
	}

	for i := range receipts {
		receipt := &receipts[i]
		oldDir := e.resolver.DirectoryFor(receipt.Owner, receipt.Date)

		for j := range receipt.Files {
			file := &receipt.Files[j]
			result.TotalFiles++

			r, err := e.renameOneFile(ctx, receipt, file, pattern, oldDir)
			if err != nil {
				result.Errors = append(result.Errors, types.ItemError{
					ID: file.ID, Target: file.Filename, Error: err.Error(),
				})

				continue
			}

			if r.OldFilename != r.NewFilename || r.Moved {
				result.Renamed++
			}
		}
	}

	nlog.Logger().Info().
		Int("receipts", result.TotalReceipts).
		Int("files", result.TotalFiles).
		Int("renamed", result.Renamed).
		Int("errors", len(result.Errors)).
		Msg("bulk rename finished")

	return result, nil
}
