package service

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid"

	"github.com/yeisme/receiptvault/pkg/configs"
	"github.com/yeisme/receiptvault/pkg/internal/fsops"
	"github.com/yeisme/receiptvault/pkg/internal/model"
	"github.com/yeisme/receiptvault/pkg/internal/naming"
	"github.com/yeisme/receiptvault/pkg/internal/types"
	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// ErrScanInProgress 上一次扫描尚未结束时返回，新请求被丢弃而不是排队.
var ErrScanInProgress = errors.New("watch scan already in progress")

// ulidEntropy 扫描会话 ID 的单调熵源.
var ulidEntropy = ulid.Monotonic(crand.Reader, 0)

// WatchMarkerTag 导入票据携带的固定标记标签.
const WatchMarkerTag = "imported"

// supportedImportExts 监听目录可导入的扩展名.
var supportedImportExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
	".pdf": true,
}

// Watcher 监听目录扫描器.单飞标志保证定时触发和手动触发不会并发重叠.
type Watcher struct {
	engine *Engine
	cfg    *configs.AppConfig

	scanning atomic.Bool

	mu         sync.Mutex
	lastScanAt *time.Time
	nextScanAt *time.Time
}

// NewWatcher 创建扫描器实例.
func NewWatcher(engine *Engine, cfg *configs.AppConfig) *Watcher {
	return &Watcher{engine: engine, cfg: cfg}
}

// Status 返回当前运行状态快照.
func (w *Watcher) Status() types.WatchStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	return types.WatchStatus{
		Enabled:    w.cfg.Watch.Enabled,
		IsScanning: w.scanning.Load(),
		LastScanAt: w.lastScanAt,
		NextScanAt: w.nextScanAt,
	}
}

// SetNextScan 由调度器登记下一次计划扫描时间.
func (w *Watcher) SetNextScan(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := t
	w.nextScanAt = &next
}

// TriggerScan 手动触发一次扫描.进行中的扫描不被打断，本次请求直接丢弃.
func (w *Watcher) TriggerScan(ctx context.Context) (*types.TriggerScanResponse, error) {
	res, err := w.Scan(ctx)
	if errors.Is(err, ErrScanInProgress) {
		return &types.TriggerScanResponse{Triggered: false}, nil
	}

	if err != nil {
		return nil, err
	}

	return &types.TriggerScanResponse{Triggered: true, Result: res}, nil
}

// Scan 执行一次监听目录扫描.顶层文件各自生成一张票据，顶层目录内的全部
// 受支持文件合并为一张多文件票据；隐藏条目和已处理子目录跳过.原件在入库
// 后归档到带时间戳的 processed 子目录.单项失败记入 errors 并继续.
func (w *Watcher) Scan(ctx context.Context) (*types.ScanResult, error) {
	if !w.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer w.scanning.Store(false)

	started := time.Now()

	defer func() {
		w.mu.Lock()
		at := started
		w.lastScanAt = &at
		w.mu.Unlock()
	}()

	result := &types.ScanResult{
		SessionID: ulid.MustNew(ulid.Timestamp(started), ulidEntropy).String(),
		Errors:    []types.ItemError{},
	}

	watchDir := w.cfg.Storage.WatchDir

	entries, err := os.ReadDir(watchDir)
	if err != nil {
		return nil, fmt.Errorf("read watch directory %s: %w", watchDir, err)
	}

	archiveDir := filepath.Join(w.cfg.Storage.ProcessedDir(), started.Format("20060102-150405"))

	log := nlog.Logger().With().Str("session", result.SessionID).Logger()
	log.Info().Str("dir", watchDir).Int("entries", len(entries)).Msg("watch scan started")

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == w.cfg.Storage.ProcessedDirName {
			continue
		}

		src := filepath.Join(watchDir, name)

		if entry.IsDir() {
			w.ingestDir(ctx, src, archiveDir, result)

			continue
		}

		if !supportedImportExts[strings.ToLower(filepath.Ext(name))] {
			log.Info().Str("file", name).Msg("unsupported extension, skipping")
			result.SkippedEntries++

			continue
		}

		w.ingestFiles(ctx, name, []string{src}, archiveDir, result)
	}

	log.Info().
		Int("receipts", result.CreatedReceipts).
		Int("files", result.StoredFiles).
		Int("skipped", result.SkippedEntries).
		Int("errors", len(result.Errors)).
		Dur("elapsed", time.Since(started)).
		Msg("watch scan finished")

	return result, nil
}

// ingestDir 将一个顶层子目录导入为一张多文件票据.不含受支持文件时整个
// 目录按跳过处理，原样留在监听目录里.
func (w *Watcher) ingestDir(ctx context.Context, dir, archiveDir string, result *types.ScanResult) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Errors = append(result.Errors, types.ItemError{Target: dir, Error: err.Error()})

		return
	}

	var files []string

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		if !supportedImportExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			nlog.Logger().Info().Str("file", entry.Name()).Msg("unsupported extension, skipping")
			result.SkippedEntries++

			continue
		}

		files = append(files, filepath.Join(dir, entry.Name()))
	}

	if len(files) == 0 {
		result.SkippedEntries++

		return
	}

	sort.Strings(files)
	// 子目录的原件归档时保留一层目录名，避免不同子目录下的同名文件互撞
	w.ingestFiles(ctx, filepath.Base(dir), files, filepath.Join(archiveDir, filepath.Base(dir)), result)

	// 目录里只剩隐藏或不支持的残留时保留，等人工处理
	fsops.RemoveDirIfEmpty(dir)
}

// ingestFiles 为一组源文件创建一张占位票据并走常规入库路径.票据字段中
// 只有来源名可知：vendor 取自文件或目录名，owner 置为 unknown，日期取当天.
func (w *Watcher) ingestFiles(ctx context.Context, sourceName string, files []string, archiveDir string, result *types.ScanResult) {
	stem := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))

	receipt := &model.Receipt{
		Owner:  naming.UnknownToken,
		Date:   time.Now().Format(time.DateOnly),
		Vendor: stem,
	}

	tag, err := w.engine.EnsureTag(ctx, WatchMarkerTag)
	if err != nil {
		result.Errors = append(result.Errors, types.ItemError{Target: sourceName, Error: err.Error()})

		return
	}

	receipt.Tags = []model.Tag{*tag}
	receipt.RefreshTagsJSON()

	if err := w.engine.CreateReceipt(ctx, receipt); err != nil {
		result.Errors = append(result.Errors, types.ItemError{Target: sourceName, Error: err.Error()})

		return
	}

	result.CreatedReceipts++

	for _, src := range files {
		if err := w.ingestOne(ctx, receipt, src, archiveDir); err != nil {
			result.Errors = append(result.Errors, types.ItemError{
				ID: receipt.ID, Target: src, Error: err.Error(),
			})

			continue
		}

		result.StoredFiles++
	}
}

// ingestOne 入库单个源文件并把原件挪进归档目录.
func (w *Watcher) ingestOne(ctx context.Context, receipt *model.Receipt, src, archiveDir string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}

	stored, err := w.engine.StoreFile(ctx, receipt, f, filepath.Base(src))
	_ = f.Close()

	if err != nil {
		return err
	}

	receipt.Files = append(receipt.Files, *stored)

	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	if err := fsops.Move(src, filepath.Join(archiveDir, filepath.Base(src))); err != nil {
		return fmt.Errorf("archive original: %w", err)
	}

	return nil
}
