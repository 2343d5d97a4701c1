package fsops

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestWriteAndExists 测试写入自动建目录和存在性检查.
func TestWriteAndExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "file.txt")

	if Exists(path) {
		t.Error("file should not exist yet")
	}

	if err := Write(path, []byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if !Exists(path) {
		t.Error("file should exist after write")
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Errorf("unexpected content: %q, err=%v", data, err)
	}
}

// TestDeleteMissingIsNoError 删除不存在的文件不报错.
func TestDeleteMissingIsNoError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.txt")

	if err := Delete(path); err != nil {
		t.Errorf("Delete of missing file should succeed, got %v", err)
	}

	if err := Write(path, []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := Delete(path); err != nil {
		t.Errorf("Delete: %v", err)
	}

	if Exists(path) {
		t.Error("file should be gone")
	}
}

// TestMove 测试基本移动.
func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "sub", "dst.txt")

	if err := Write(src, []byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := Move(src, dst); err != nil {
		t.Fatalf("Move: %v", err)
	}

	if Exists(src) {
		t.Error("source should be gone after move")
	}

	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Errorf("unexpected destination content: %q, err=%v", data, err)
	}
}

// TestMoveRefusesOverwrite 目标已存在时拒绝移动.
func TestMoveRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	if err := Write(src, []byte("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := Write(dst, []byte("old")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	err := Move(src, dst)
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}

	// 双方都保持原状
	data, _ := os.ReadFile(dst)
	if string(data) != "old" {
		t.Errorf("destination was clobbered: %q", data)
	}

	if !Exists(src) {
		t.Error("source should still exist")
	}
}

// TestMoveSamePathIsNoop 源等于目标时为空操作.
func TestMoveSamePathIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "same.txt")

	if err := Write(path, []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := Move(path, path); err != nil {
		t.Errorf("Move to same path should be a no-op, got %v", err)
	}

	if !Exists(path) {
		t.Error("file should survive no-op move")
	}
}

// TestRemoveDirIfEmpty 测试尽力删除空目录.
func TestRemoveDirIfEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")

	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := Write(filepath.Join(full, "f.txt"), []byte("x")); err != nil {
		t.Fatal(err)
	}

	if !RemoveDirIfEmpty(empty) {
		t.Error("expected empty dir to be removed")
	}

	if RemoveDirIfEmpty(full) {
		t.Error("expected non-empty dir to be kept")
	}

	if !Exists(filepath.Join(full, "f.txt")) {
		t.Error("file in non-empty dir should survive")
	}
}
