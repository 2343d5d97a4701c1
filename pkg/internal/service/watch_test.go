package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T) (*Watcher, *Engine) {
	t.Helper()

	e := newTestEngine(t)
	if err := os.MkdirAll(e.cfg.Storage.WatchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}

	return NewWatcher(e, e.cfg), e
}

func writeInbox(t *testing.T, w *Watcher, rel string, data []byte) {
	t.Helper()

	path := filepath.Join(w.cfg.Storage.WatchDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestScanIngestsFilesAndDirectories(t *testing.T) {
	w, e := newTestWatcher(t)
	ctx := context.Background()

	img := encodeNoiseJPEG(t, 40, 80)

	writeInbox(t, w, "standalone.jpg", img)
	writeInbox(t, w, "notes.txt", []byte("not importable"))
	writeInbox(t, w, filepath.Join("trip", "first.jpg"), img)
	writeInbox(t, w, filepath.Join("trip", "second.jpg"), img)

	res, err := w.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// 顶层文件一张票据，子目录合并为一张多文件票据
	if res.CreatedReceipts != 2 {
		t.Errorf("CreatedReceipts = %d, want 2", res.CreatedReceipts)
	}

	if res.StoredFiles != 3 {
		t.Errorf("StoredFiles = %d, want 3", res.StoredFiles)
	}

	if res.SkippedEntries < 1 {
		t.Errorf("SkippedEntries = %d, want >= 1", res.SkippedEntries)
	}

	if len(res.Errors) != 0 {
		t.Errorf("Errors = %+v, want empty", res.Errors)
	}

	if res.SessionID == "" {
		t.Error("empty session id")
	}

	// 原件归档到 processed 下的时间戳目录
	processed, err := os.ReadDir(w.cfg.Storage.ProcessedDir())
	if err != nil || len(processed) == 0 {
		t.Fatalf("processed dir empty after scan: %v", err)
	}

	// 不支持的扩展名留在原地
	if _, err := os.Stat(filepath.Join(w.cfg.Storage.WatchDir, "notes.txt")); err != nil {
		t.Errorf("unsupported file was moved: %v", err)
	}

	receipts, err := e.ListReceipts(ctx)
	if err != nil {
		t.Fatalf("ListReceipts: %v", err)
	}

	if len(receipts) != 2 {
		t.Fatalf("receipts = %d, want 2", len(receipts))
	}

	for _, r := range receipts {
		if r.Owner != "unknown" {
			t.Errorf("Owner = %q, want placeholder", r.Owner)
		}

		if len(r.Tags) != 1 || r.Tags[0].Name != WatchMarkerTag {
			t.Errorf("tags = %+v, want the %q marker", r.Tags, WatchMarkerTag)
		}
	}
}

func TestScanMarkerTagIsNeverDuplicated(t *testing.T) {
	w, e := newTestWatcher(t)
	ctx := context.Background()

	img := encodeNoiseJPEG(t, 40, 80)

	writeInbox(t, w, "one.jpg", img)

	if _, err := w.Scan(ctx); err != nil {
		t.Fatalf("first Scan: %v", err)
	}

	writeInbox(t, w, "two.jpg", img)

	if _, err := w.Scan(ctx); err != nil {
		t.Fatalf("second Scan: %v", err)
	}

	tags, err := e.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}

	count := 0

	for _, tag := range tags {
		if tag.Name == WatchMarkerTag {
			count++
		}
	}

	if count != 1 {
		t.Errorf("marker tag rows = %d, want exactly 1", count)
	}
}

func TestScanSingleFlight(t *testing.T) {
	w, _ := newTestWatcher(t)
	ctx := context.Background()

	w.scanning.Store(true)

	if _, err := w.Scan(ctx); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("Scan during scan = %v, want ErrScanInProgress", err)
	}

	resp, err := w.TriggerScan(ctx)
	if err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}

	if resp.Triggered {
		t.Error("TriggerScan reported triggered while a scan was running")
	}

	w.scanning.Store(false)

	resp, err = w.TriggerScan(ctx)
	if err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}

	if !resp.Triggered || resp.Result == nil {
		t.Errorf("TriggerScan response = %+v, want triggered with result", resp)
	}
}

func TestScanContinuesPastBrokenEntries(t *testing.T) {
	w, e := newTestWatcher(t)
	ctx := context.Background()

	// 内容损坏但扩展名受支持的文件照常入库；空子目录按跳过处理
	writeInbox(t, w, "broken.jpg", []byte("definitely not a jpeg"))
	writeInbox(t, w, "good.jpg", encodeNoiseJPEG(t, 40, 80))

	if err := os.MkdirAll(filepath.Join(w.cfg.Storage.WatchDir, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	res, err := w.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if res.CreatedReceipts != 2 {
		t.Errorf("CreatedReceipts = %d, want 2", res.CreatedReceipts)
	}

	if res.StoredFiles != 2 {
		t.Errorf("StoredFiles = %d, want 2", res.StoredFiles)
	}

	receipts, err := e.ListReceipts(ctx)
	if err != nil {
		t.Fatalf("ListReceipts: %v", err)
	}

	if len(receipts) != 2 {
		t.Errorf("receipts = %d, want 2", len(receipts))
	}
}

func TestWatchStatus(t *testing.T) {
	w, _ := newTestWatcher(t)
	ctx := context.Background()

	st := w.Status()
	if st.LastScanAt != nil || st.IsScanning {
		t.Errorf("fresh status = %+v", st)
	}

	if _, err := w.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	next := time.Now().Add(5 * time.Minute)
	w.SetNextScan(next)

	st = w.Status()
	if st.LastScanAt == nil {
		t.Error("LastScanAt not recorded after scan")
	}

	if st.NextScanAt == nil || !st.NextScanAt.Equal(next) {
		t.Errorf("NextScanAt = %v, want %v", st.NextScanAt, next)
	}

	if !st.Enabled {
		t.Error("Enabled = false with watch enabled in config")
	}
}
