package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRecoverBySuffix(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r := makeReceipt(t, e, "John Doe", "2024-01-15", "Test Clinic", 100.50)
	f := storeText(t, e, r, "scan.pdf", "recover me")

	// 丢行不丢文件
	if err := e.DeleteFileRow(ctx, f.ID); err != nil {
		t.Fatalf("DeleteFileRow: %v", err)
	}

	res, err := e.RecoverAssociations(ctx)
	if err != nil {
		t.Fatalf("RecoverAssociations: %v", err)
	}

	if res.Recovered != 1 || res.Skipped != 0 {
		t.Fatalf("result = %+v, want one recovered file", res)
	}

	rows, err := e.ListFilesOf(ctx, r.ID)
	if err != nil {
		t.Fatalf("ListFilesOf: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}

	if rows[0].Filename != f.Filename {
		t.Errorf("recovered filename = %q, want %q", rows[0].Filename, f.Filename)
	}

	if rows[0].FileOrder != 0 {
		t.Errorf("recovered order = %d, want suffix-embedded 0", rows[0].FileOrder)
	}

	if rows[0].Hash == "" || rows[0].Size == 0 {
		t.Errorf("recovered row missing hash/size: %+v", rows[0])
	}
}

func TestRecoverSingleCandidateHeuristic(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r := makeReceipt(t, e, "John Doe", "2024-01-15", "Test Clinic", 100.50)

	// 后缀不可解析的文件，目录里只有一个候选票据
	dir := e.resolver.DirectoryFor(r.Owner, r.Date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "mystery.pdf"), []byte("orphan"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := e.RecoverAssociations(ctx)
	if err != nil {
		t.Fatalf("RecoverAssociations: %v", err)
	}

	if res.Recovered != 1 {
		t.Fatalf("result = %+v, want one recovered file", res)
	}

	rows, err := e.ListFilesOf(ctx, r.ID)
	if err != nil {
		t.Fatalf("ListFilesOf: %v", err)
	}

	if len(rows) != 1 || rows[0].Filename != "mystery.pdf" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestRecoverSkipsAmbiguousFiles(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// 同 owner 同日期的两张票据共享目录，无后缀文件无法归属
	a := makeReceipt(t, e, "John Doe", "2024-01-15", "Clinic A", 10)
	makeReceipt(t, e, "John Doe", "2024-01-15", "Clinic B", 20)

	dir := e.resolver.DirectoryFor(a.Owner, a.Date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "mystery.pdf"), []byte("orphan"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := e.RecoverAssociations(ctx)
	if err != nil {
		t.Fatalf("RecoverAssociations: %v", err)
	}

	if res.Recovered != 0 || res.Skipped != 1 {
		t.Errorf("result = %+v, want the ambiguous file skipped", res)
	}
}

func TestRecoverIgnoresRegisteredFiles(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r := makeReceipt(t, e, "John Doe", "2024-01-15", "Test Clinic", 100.50)
	storeText(t, e, r, "scan.pdf", "already registered")

	res, err := e.RecoverAssociations(ctx)
	if err != nil {
		t.Fatalf("RecoverAssociations: %v", err)
	}

	if res.Recovered != 0 || res.Skipped != 0 {
		t.Errorf("result = %+v, want nothing to recover", res)
	}

	rows, err := e.ListFilesOf(ctx, r.ID)
	if err != nil {
		t.Fatalf("ListFilesOf: %v", err)
	}

	if len(rows) != 1 {
		t.Errorf("rows = %d, duplicate inserted", len(rows))
	}
}

func TestRecoverSkipsLegacyNumericDirs(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	makeReceipt(t, e, "John Doe", "2024-01-15", "Test Clinic", 100.50)

	// 旧结构目录归迁移操作管，恢复扫描不碰
	legacy := filepath.Join(e.resolver.Root, "1")
	if err := os.MkdirAll(legacy, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(legacy, "legacy.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := e.RecoverAssociations(ctx)
	if err != nil {
		t.Fatalf("RecoverAssociations: %v", err)
	}

	if res.ScannedFiles != 0 {
		t.Errorf("ScannedFiles = %d, legacy dir was walked", res.ScannedFiles)
	}
}
