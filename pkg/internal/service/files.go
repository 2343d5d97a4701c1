package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid"

	"github.com/yeisme/receiptvault/pkg/internal/fsops"
	"github.com/yeisme/receiptvault/pkg/internal/imgproc"
	"github.com/yeisme/receiptvault/pkg/internal/model"
	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// PathOf 返回文件当前的完整磁盘路径：目录由票据的 owner/date 决定，
// 文件名取元数据中的当前值.
func (e *Engine) PathOf(r *model.Receipt, f *model.ReceiptFile) string {
	return filepath.Join(e.resolver.DirectoryFor(r.Owner, r.Date), f.Filename)
}

// StoreFile 按命名引擎落盘新文件并写入元数据行，位图文件随后内联优化.
// 这是上传和目录导入共用的存储路径.
func (e *Engine) StoreFile(ctx context.Context, receipt *model.Receipt, src io.Reader, originalFilename string) (*model.ReceiptFile, error) {
	existing, err := e.ListFilesOf(ctx, receipt.ID)
	if err != nil {
		return nil, err
	}

	// 序号取现存最大值 +1.删除留下的空洞不回收，回收会让新文件
	// 撞上存活文件的 [id-index] 后缀并覆盖其内容
	index := nextOrder(existing)
	pattern := e.GetPattern(ctx)
	ext := filepath.Ext(originalFilename)

	dir := e.resolver.DirectoryFor(receipt.Owner, receipt.Date)
	if err := e.resolver.EnsureDirectory(dir); err != nil {
		return nil, err
	}

	filename := e.resolver.FilenameFor(pattern, fieldsOf(receipt), receipt.ID, index, ext)
	path := filepath.Join(dir, filename)

	hasher := xxhash.New()

	// 先写入暂存目录，写完后整体落位.上传中断不会在正式目录留下半截文件，
	// Move 对已占用的目标路径返回 ErrDestinationExists，存活文件不会被覆盖
	staged := filepath.Join(e.cfg.Storage.StagingDir,
		fmt.Sprintf("%d-%s%s", receipt.ID, ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String(), ext))

	size, err := fsops.WriteFrom(staged, io.TeeReader(src, hasher))
	if err != nil {
		_ = fsops.Delete(staged)

		return nil, err
	}

	if err := fsops.Move(staged, path); err != nil {
		_ = fsops.Delete(staged)

		return nil, err
	}

	file := &model.ReceiptFile{
		ReceiptID:        receipt.ID,
		Filename:         filename,
		OriginalFilename: originalFilename,
		FileOrder:        index,
		Size:             size,
		Hash:             fmt.Sprintf("%016x", hasher.Sum64()),
	}

	if err := e.InsertFile(ctx, file); err != nil {
		// 元数据插入失败时撤掉孤儿文件，保持索引一致
		_ = fsops.Delete(path)

		return nil, err
	}

	if imgproc.IsBitmap(path) {
		if err := e.optimizeStoredFile(ctx, receipt, file); err != nil {
			nlog.Logger().Warn().Err(err).Uint("file", file.ID).Msg("inline optimization failed")
		}
	}

	return file, nil
}

// DeleteFile 删除物理文件和元数据行，随后尽力清理空目录.
func (e *Engine) DeleteFile(ctx context.Context, fileID uint) error {
	file, err := e.GetFile(ctx, fileID)
	if err != nil {
		return err
	}

	receipt, err := e.GetReceipt(ctx, file.ReceiptID)
	if err != nil {
		return err
	}

	path := e.PathOf(receipt, file)
	if err := fsops.Delete(path); err != nil {
		return err
	}

	if err := e.DeleteFileRow(ctx, fileID); err != nil {
		return err
	}

	fsops.RemoveDirIfEmpty(filepath.Dir(path))

	return nil
}

// OpenFile 打开文件内容用于下载.
func (e *Engine) OpenFile(ctx context.Context, fileID uint) (*model.ReceiptFile, string, error) {
	file, err := e.GetFile(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	receipt, err := e.GetReceipt(ctx, file.ReceiptID)
	if err != nil {
		return nil, "", err
	}

	path := e.PathOf(receipt, file)
	if !fsops.Exists(path) {
		return nil, "", fmt.Errorf("file %d missing on disk: %s", fileID, file.Filename)
	}

	return file, path, nil
}
