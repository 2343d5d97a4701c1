package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// nowFunc 便于测试替换当前时间.
var nowFunc = time.Now

// ParseDate 防御性解析 YYYY-MM-DD 日期字符串，允许附带时间后缀
// （"2024-01-15T10:30:00" 或 "2024-01-15 10:30"）.解析失败或日历范围
// 非法时回退到当前日期，保证路径解析永远有结果，上传不会因坏日期硬失败.
func ParseDate(date string) time.Time {
	s := strings.TrimSpace(date)
	if len(s) >= 10 && (len(s) == 10 || s[10] == 'T' || s[10] == ' ') {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t
		}
	}

	return nowFunc()
}

// DateOnly 返回日期字符串的 YYYY-MM-DD 部分，丢弃时间成分.
func DateOnly(date string) string {
	return ParseDate(date).Format("2006-01-02")
}

// Resolver 根据票据字段解析规范的存储目录和文件名.
// Root 为注入的存储根目录，核心代码不读取全局配置.
type Resolver struct {
	Root string
}

// NewResolver 创建路径解析器.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// DirectoryFor 计算票据的规范目录：{root}/{sanitize(owner)}/{year}/{month:02}/{day:02}.
// 目录只由 owner 和 date 决定，同 owner 同日期的票据共享目录.
func (r *Resolver) DirectoryFor(owner, date string) string {
	t := ParseDate(date)

	return filepath.Join(r.Root,
		Sanitize(owner),
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()),
	)
}

// EnsureDirectory 幂等地创建目录树.
func (r *Resolver) EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure directory %s: %w", dir, err)
	}

	return nil
}

// FilenameFor 组合模板渲染结果、强制的 [receiptID-index] 冲突后缀和扩展名.
// 冲突后缀是唯一的防碰撞机制：其余字段完全相同的两个文件也不会互相覆盖.
func (r *Resolver) FilenameFor(pattern string, f Fields, receiptID uint, index int, ext string) string {
	base := Render(pattern, f, index)

	return fmt.Sprintf("%s[%d-%d]%s", base, receiptID, index, NormalizeExt(ext))
}

// PathFor 返回文件的完整规范路径.
func (r *Resolver) PathFor(pattern string, f Fields, receiptID uint, index int, ext string) string {
	return filepath.Join(
		r.DirectoryFor(f.Owner, f.Date),
		r.FilenameFor(pattern, f, receiptID, index, ext),
	)
}

// NormalizeExt 规整扩展名：小写、确保以点开头；空扩展名原样返回.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}

	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return ext
}

// ParseCollisionSuffix 从文件名中解析 [receiptID-index] 冲突后缀.
// 用于关联恢复时把磁盘文件匹配回元数据行.解析不到时 ok 为 false.
func ParseCollisionSuffix(filename string) (receiptID uint, index int, ok bool) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	close := strings.LastIndexByte(base, ']')
	if close < 0 {
		return 0, 0, false
	}

	open := strings.LastIndexByte(base[:close], '[')
	if open < 0 {
		return 0, 0, false
	}

	var id uint64

	var idx int

	if _, err := fmt.Sscanf(base[open:close+1], "[%d-%d]", &id, &idx); err != nil {
		return 0, 0, false
	}

	if idx < 0 {
		return 0, 0, false
	}

	return uint(id), idx, true
}
