package service

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/receiptvault/pkg/internal/model"
	"github.com/yeisme/receiptvault/pkg/internal/naming"
	"github.com/yeisme/receiptvault/pkg/internal/types"
	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// RecoverAssociations 扫描 owner/date 目录树，把磁盘上存在但元数据缺失的
// 文件启发式匹配回票据并补插元数据行.用于修复丢了行没丢文件的库.
func (e *Engine) RecoverAssociations(ctx context.Context) (*types.RecoverResult, error) {
	result := &types.RecoverResult{Errors: []types.ItemError{}}

	receipts, err := e.ListReceipts(ctx)
	if err != nil {
		return nil, err
	}

	// 已登记文件名集合（冲突后缀保证全库唯一），以及目录到候选票据的映射
	known := make(map[string]bool)
	byDir := make(map[string][]*model.Receipt)

	for i := range receipts {
		r := &receipts[i]
		for j := range r.Files {
			known[r.Files[j].Filename] = true
		}

		dir := e.resolver.DirectoryFor(r.Owner, r.Date)
		byDir[dir] = append(byDir[dir], r)
	}

	byID := make(map[uint]*model.Receipt, len(receipts))
	for i := range receipts {
		byID[receipts[i].ID] = &receipts[i]
	}

	root := e.resolver.Root

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, types.ItemError{Target: path, Error: err.Error()})

			return nil
		}

		if d.IsDir() {
			// 顶层纯数字目录属于旧结构，归迁移操作管
			if filepath.Dir(path) == root {
				if _, numErr := strconv.Atoi(d.Name()); numErr == nil {
					return fs.SkipDir
				}
			}

			return nil
		}

		result.ScannedFiles++

		if known[d.Name()] {
			return nil
		}

		if e.recoverOneFile(ctx, path, byDir, byID, result) {
			result.Recovered++
		} else {
			result.Skipped++
		}

		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		return nil, fmt.Errorf("walk storage root: %w", walkErr)
	}

	nlog.Logger().Info().
		Int("scanned", result.ScannedFiles).
		Int("recovered", result.Recovered).
		Int("skipped", result.Skipped).
		Msg("association recovery finished")

	return result, nil
}

// recoverOneFile 尝试把单个失联文件匹配回票据.优先解析 [id-index] 后缀；
// 解析不到时退回"目录里唯一候选票据"启发式.返回是否成功补插.
func (e *Engine) recoverOneFile(ctx context.Context, path string,
	byDir map[string][]*model.Receipt, byID map[uint]*model.Receipt, result *types.RecoverResult) bool {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	var receipt *model.Receipt

	order := -1

	if id, idx, ok := naming.ParseCollisionSuffix(base); ok {
		if r, exists := byID[id]; exists && e.resolver.DirectoryFor(r.Owner, r.Date) == dir {
			receipt = r
			order = idx
		}
	}

	if receipt == nil {
		// 后缀不可用：目录（owner+date）里只有一个候选票据时归属它
		if candidates := byDir[dir]; len(candidates) == 1 {
			receipt = candidates[0]
		}
	}

	if receipt == nil {
		return false
	}

	if order < 0 || orderTaken(receipt.Files, order) {
		order = nextOrder(receipt.Files)
	}

	file := &model.ReceiptFile{
		ReceiptID:        receipt.ID,
		Filename:         base,
		OriginalFilename: base,
		FileOrder:        order,
		Hash:             hashFile(path),
	}

	if fi, err := os.Stat(path); err == nil {
		file.Size = fi.Size()
	}

	if err := e.InsertFile(ctx, file); err != nil {
		result.Errors = append(result.Errors, types.ItemError{Target: base, Error: err.Error()})

		return false
	}

	// 维护内存视图，同目录后续文件的 order 不重复
	receipt.Files = append(receipt.Files, *file)

	return true
}

func orderTaken(files []model.ReceiptFile, order int) bool {
	for i := range files {
		if files[i].FileOrder == order {
			return true
		}
	}

	return false
}

// nextOrder 返回现存最大 FileOrder +1，空洞不回收.
func nextOrder(files []model.ReceiptFile) int {
	next := 0

	for i := range files {
		if files[i].FileOrder >= next {
			next = files[i].FileOrder + 1
		}
	}

	return next
}

// hashFile 计算文件内容的 xxhash，失败时返回空串.
func hashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
