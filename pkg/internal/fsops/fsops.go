// Package fsops 提供面向单个已解析路径的文件原语：写入、存在性检查、删除和
// 带降级策略的移动.所有操作都是阻塞 I/O，调用方负责路径解析.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	nlog "github.com/yeisme/receiptvault/pkg/log"
)

// ErrDestinationExists 移动目标已被不同文件占用时返回，绝不静默覆盖.
var ErrDestinationExists = errors.New("destination file already exists")

// Write 将字节写入 path，必要时创建父目录.
func Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// WriteFrom 将 reader 内容流式写入 path，返回写入字节数.
func WriteFrom(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create parent directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", path, err)
	}

	return n, nil
}

// Exists 检查 path 是否存在.
func Exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// Delete 删除文件."不存在"和"已删除"是等价的终态，文件缺失不报错.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", path, err)
	}

	return nil
}

// Move 将 src 移动到 dst.优先原子 rename，失败（如跨设备）时降级为
// 复制后删除源文件.若 dst 已存在且不是 src 本身，拒绝移动并返回
// ErrDestinationExists，由调用方决定如何处理，数据绝不被静默覆盖.
func Move(src, dst string) error {
	if src == dst {
		return nil
	}

	if Exists(dst) {
		nlog.Logger().Warn().Str("src", src).Str("dst", dst).Msg("move skipped: destination already exists")

		return ErrDestinationExists
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// rename 失败，尝试复制后删除（跨设备移动）
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("move %s -> %s: %w", src, dst, err)
	}

	if err := os.Remove(src); err != nil {
		nlog.Logger().Warn().Err(err).Str("src", src).Msg("failed to remove source after copy")
	}

	return nil
}

// copyFile 复制文件内容和权限位.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()

		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	if fi, err := in.Stat(); err == nil {
		_ = os.Chmod(dst, fi.Mode())
	}

	return nil
}

// RemoveDirIfEmpty 尽力删除空目录，返回是否删除成功.非空或不可删除不算错误.
func RemoveDirIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}

	return os.Remove(dir) == nil
}
