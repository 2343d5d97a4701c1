package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeisme/receiptvault/pkg/internal/model"
)

// plantLegacyFile 在旧版 {receiptID}/ 目录下落盘一个文件并登记对应元数据行.
func plantLegacyFile(t *testing.T, e *Engine, r *model.Receipt, name string) *model.ReceiptFile {
	t.Helper()

	legacyDir := filepath.Join(e.resolver.Root, fmt.Sprintf("%d", r.ID))
	if err := os.MkdirAll(legacyDir, 0o755); err != nil {
		t.Fatalf("mkdir legacy dir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(legacyDir, name), []byte("legacy bytes"), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	file := &model.ReceiptFile{
		ReceiptID:        r.ID,
		Filename:         name,
		OriginalFilename: name,
	}
	if err := e.InsertFile(context.Background(), file); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}

	return file
}

func TestMigrateLegacyLayout(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r := makeReceipt(t, e, "John Doe", "2024-01-15", "Test Clinic", 100.50)
	f := plantLegacyFile(t, e, r, "old-scan.pdf")

	res, err := e.MigrateLegacyLayout(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyLayout: %v", err)
	}

	if res.ScannedDirs != 1 || res.MovedFiles != 1 || res.RemovedDirs != 1 {
		t.Errorf("result = %+v, want 1 dir scanned, 1 file moved, 1 dir removed", res)
	}

	if len(res.Errors) != 0 {
		t.Errorf("Errors = %+v, want empty", res.Errors)
	}

	// 旧目录消失，文件落到 owner/date 结构并按当前模板改名
	legacyDir := filepath.Join(e.resolver.Root, fmt.Sprintf("%d", r.ID))
	if _, err := os.Stat(legacyDir); !os.IsNotExist(err) {
		t.Error("legacy directory still present")
	}

	got, err := e.GetFile(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}

	if got.Filename == "old-scan.pdf" {
		t.Error("metadata filename not updated by migration")
	}

	newPath := filepath.Join(e.resolver.DirectoryFor(r.Owner, r.Date), got.Filename)
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("migrated file missing at %s: %v", newPath, err)
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r := makeReceipt(t, e, "John Doe", "2024-01-15", "Test Clinic", 100.50)
	plantLegacyFile(t, e, r, "old-scan.pdf")

	if _, err := e.MigrateLegacyLayout(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	res, err := e.MigrateLegacyLayout(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if res.ScannedDirs != 0 || res.MovedFiles != 0 || len(res.Errors) != 0 {
		t.Errorf("second run result = %+v, want nothing to do", res)
	}
}

func TestMigrateLeavesUnknownDirsAlone(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// 非数字目录不属于旧结构
	alien := filepath.Join(e.resolver.Root, "john-doe")
	if err := os.MkdirAll(alien, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(alien, "keep.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := e.MigrateLegacyLayout(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyLayout: %v", err)
	}

	if res.ScannedDirs != 0 {
		t.Errorf("ScannedDirs = %d, want 0", res.ScannedDirs)
	}

	if _, err := os.Stat(filepath.Join(alien, "keep.pdf")); err != nil {
		t.Errorf("unrelated file touched by migration: %v", err)
	}
}

func TestMigrateReportsUnmatchedFiles(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r := makeReceipt(t, e, "John Doe", "2024-01-15", "Test Clinic", 100.50)

	legacyDir := filepath.Join(e.resolver.Root, fmt.Sprintf("%d", r.ID))
	if err := os.MkdirAll(legacyDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// 磁盘文件没有对应元数据行
	if err := os.WriteFile(filepath.Join(legacyDir, "stray.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := e.MigrateLegacyLayout(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyLayout: %v", err)
	}

	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %+v, want one unmatched-file error", res.Errors)
	}

	if res.RemovedDirs != 0 {
		t.Error("non-empty legacy directory was removed")
	}

	if _, err := os.Stat(filepath.Join(legacyDir, "stray.pdf")); err != nil {
		t.Errorf("unmatched file moved or deleted: %v", err)
	}
}
