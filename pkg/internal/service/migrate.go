package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yeisme/receiptvault/pkg/internal/fsops"
	"github.com/yeisme/receiptvault/pkg/internal/types"
	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// MigrateLegacyLayout 一次性迁移旧的 {receiptID}/ 目录结构到 owner/date 结构.
// 只处理名称为纯数字的顶层目录；迁空后的目录尽力删除，非空或无法识别的
// 目录保持原样.可安全重复执行.
func (e *Engine) MigrateLegacyLayout(ctx context.Context) (*types.MigrateResult, error) {
	root := e.resolver.Root
	result := &types.MigrateResult{Errors: []types.ItemError{}}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}

		return nil, fmt.Errorf("read storage root: %w", err)
	}

	pattern := e.GetPattern(ctx)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		receiptID, err := strconv.ParseUint(entry.Name(), 10, 32)
		if err != nil {
			// 非数字目录不属于旧结构，跳过
			continue
		}

		result.ScannedDirs++

		legacyDir := filepath.Join(root, entry.Name())
		e.migrateLegacyDir(ctx, uint(receiptID), legacyDir, pattern, result)

		if fsops.RemoveDirIfEmpty(legacyDir) {
			result.RemovedDirs++
		}
	}

	nlog.Logger().Info().
		Int("dirs", result.ScannedDirs).
		Int("moved", result.MovedFiles).
		Int("removed", result.RemovedDirs).
		Int("errors", len(result.Errors)).
		Msg("legacy layout migration finished")

	return result, nil
}

// migrateLegacyDir 迁移单个旧票据目录下的全部文件.单文件失败不阻断其余文件.
func (e *Engine) migrateLegacyDir(ctx context.Context, receiptID uint, legacyDir, pattern string, result *types.MigrateResult) {
	receipt, err := e.GetReceipt(ctx, receiptID)
	if err != nil {
		result.Errors = append(result.Errors, types.ItemError{
			ID: receiptID, Target: legacyDir, Error: err.Error(),
		})

		return
	}

	newDir := e.resolver.DirectoryFor(receipt.Owner, receipt.Date)
	if err := e.resolver.EnsureDirectory(newDir); err != nil {
		result.Errors = append(result.Errors, types.ItemError{ID: receiptID, Target: newDir, Error: err.Error()})

		return
	}

	files, err := os.ReadDir(legacyDir)
	if err != nil {
		result.Errors = append(result.Errors, types.ItemError{ID: receiptID, Target: legacyDir, Error: err.Error()})

		return
	}

	// 旧文件名到元数据行的索引
	rows := make(map[string]int, len(receipt.Files))
	for i := range receipt.Files {
		rows[receipt.Files[i].Filename] = i
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}

		i, ok := rows[f.Name()]
		if !ok {
			result.Errors = append(result.Errors, types.ItemError{
				ID: receiptID, Target: f.Name(), Error: "no metadata row for legacy file",
			})

			continue
		}

		row := &receipt.Files[i]
		newFilename := e.resolver.FilenameFor(pattern, fieldsOf(receipt), receipt.ID, row.FileOrder, fileExt(row))

		oldPath := filepath.Join(legacyDir, f.Name())
		newPath := filepath.Join(newDir, newFilename)

		if err := fsops.Move(oldPath, newPath); err != nil {
			result.Errors = append(result.Errors, types.ItemError{ID: row.ID, Target: f.Name(), Error: err.Error()})

			continue
		}

		if err := e.SetFilename(ctx, row.ID, newFilename); err != nil {
			result.Errors = append(result.Errors, types.ItemError{ID: row.ID, Target: newFilename, Error: err.Error()})

			continue
		}

		result.MovedFiles++
	}
}
