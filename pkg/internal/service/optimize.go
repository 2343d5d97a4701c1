package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/receiptvault/pkg/internal/fsops"
	"github.com/yeisme/receiptvault/pkg/internal/imgproc"
	"github.com/yeisme/receiptvault/pkg/internal/model"
	"github.com/yeisme/receiptvault/pkg/internal/types"
	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// imageOptions 从注入配置构造优化参数.
func (e *Engine) imageOptions(force bool) imgproc.Options {
	img := e.cfg.Image

	return imgproc.Options{
		Quality:            img.Quality,
		MaxDimension:       img.MaxDimension,
		MinSizeBytes:       img.MinSizeBytes,
		GrayscaleThreshold: img.GrayscaleThreshold,
		DetectGrayscale:    img.DetectGrayscale,
		PreserveMetadata:   !img.StripMetadata,
		Force:              force,
	}
}

// optimizeStoredFile 优化单个已落盘文件并维护元数据.优化与明确跳过都打上
// isOptimized 标记，之后的批处理不再重复拾取；编码失败不打标记，错误上抛.
func (e *Engine) optimizeStoredFile(ctx context.Context, receipt *model.Receipt, file *model.ReceiptFile) error {
	path := e.PathOf(receipt, file)

	res, err := imgproc.Optimize(path, e.imageOptions(false))
	if err != nil {
		return err
	}

	if res.Action == imgproc.ActionOptimized {
		err := e.db(ctx).Model(&model.ReceiptFile{}).Where("id = ?", file.ID).
			Updates(map[string]any{"size": res.NewSize, "hash": hashFile(path)}).Error
		if err != nil {
			nlog.Logger().Warn().Err(err).Uint("file", file.ID).Msg("update size after optimization failed")
		}
	}

	return e.MarkOptimized(ctx, file.ID)
}

// optimizeItem 批处理中的单个工作项.
type optimizeItem struct {
	receipt *model.Receipt
	file    *model.ReceiptFile
}

// OptimizeBatch 批量优化未打标记的文件.reoptimize 为 true 时先清空全部标记，
// 并以 force 模式重新检视每个位图文件，之前因"太小且已高效"被放过的文件
// 也会重新解码判定.工作清单按固定分块处理，分块内并发受 worker 数限制，
// 约束峰值内存和文件句柄.单项失败记入 errors，不中断批次.
func (e *Engine) OptimizeBatch(ctx context.Context, reoptimize bool) (*types.OptimizeBatchResult, error) {
	if reoptimize {
		if err := e.ResetOptimized(ctx); err != nil {
			return nil, err
		}
	}

	receipts, err := e.ListReceipts(ctx)
	if err != nil {
		return nil, err
	}

	var work []optimizeItem

	for i := range receipts {
		r := &receipts[i]
		for j := range r.Files {
			if !r.Files[j].IsOptimized {
				work = append(work, optimizeItem{receipt: r, file: &r.Files[j]})
			}
		}
	}

	result := &types.OptimizeBatchResult{Total: len(work), Errors: []types.ItemError{}}

	batchSize := e.cfg.Image.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	for start := 0; start < len(work); start += batchSize {
		end := min(start+batchSize, len(work))
		e.optimizeChunk(ctx, work[start:end], reoptimize, result)
	}

	nlog.Logger().Info().
		Int("total", result.Total).
		Int("optimized", result.Optimized).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("batch optimization finished")

	return result, nil
}

// optimizeChunk 并发处理一个分块，每个文件完成后立即写回元数据，
// 崩溃最多留下一个文件的状态不确定.
func (e *Engine) optimizeChunk(ctx context.Context, chunk []optimizeItem, force bool, result *types.OptimizeBatchResult) {
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	workers := e.cfg.Image.Workers
	if workers <= 0 {
		workers = 1
	}

	g.SetLimit(workers)

	for _, item := range chunk {
		g.Go(func() error {
			outcome, err := e.optimizeOne(gctx, item, force)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				result.Errors = append(result.Errors, types.ItemError{
					ID: item.file.ID, Target: item.file.Filename, Error: err.Error(),
				})
			case outcome == imgproc.ActionOptimized:
				result.Optimized++
			default:
				result.Skipped++
			}

			return nil
		})
	}

	_ = g.Wait()
}

// optimizeOne 处理单个工作项.源文件缺失按"跳过并打标记"处理，使其不再
// 反复出现在后续批次中；非位图文件同理.
func (e *Engine) optimizeOne(ctx context.Context, item optimizeItem, force bool) (imgproc.Action, error) {
	path := e.PathOf(item.receipt, item.file)

	if !fsops.Exists(path) {
		nlog.Logger().Warn().Str("path", path).Msg("optimize target missing on disk, marking as done")

		return imgproc.ActionSkipped, e.MarkOptimized(ctx, item.file.ID)
	}

	if !imgproc.IsBitmap(path) {
		return imgproc.ActionSkipped, e.MarkOptimized(ctx, item.file.ID)
	}

	res, err := imgproc.Optimize(path, e.imageOptions(force))
	if err != nil {
		// 编码失败不打标记，下一轮批处理可重试
		return imgproc.ActionSkipped, err
	}

	if res.Action == imgproc.ActionOptimized {
		updErr := e.db(ctx).Model(&model.ReceiptFile{}).Where("id = ?", item.file.ID).
			Updates(map[string]any{"size": res.NewSize, "hash": hashFile(path)}).Error
		if updErr != nil {
			nlog.Logger().Warn().Err(updErr).Uint("file", item.file.ID).Msg("update size after optimization failed")
		}
	}

	return res.Action, e.MarkOptimized(ctx, item.file.ID)
}
