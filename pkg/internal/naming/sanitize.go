// Package naming 实现文件命名引擎：名称净化、命名模板解析渲染和存储路径解析.
package naming

import (
	"strings"
	"unicode"
)

const (
	// maxTokenLength 净化后名称的最大长度.
	maxTokenLength = 50
	// UnknownToken 空输入的占位名称.
	UnknownToken = "unknown"
)

// Sanitize 将任意字符串净化为文件系统安全的令牌：小写、去首尾空白、
// 连续空白折叠为单个连字符、删除 [a-z0-9-_] 之外的字符、折叠重复连字符、
// 去掉首尾连字符并截断到 50 个字符.空白输入返回 "unknown".纯函数，永不失败.
func Sanitize(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return UnknownToken
	}

	var b strings.Builder

	b.Grow(len(s))

	inSpace := false

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('-')
			}

			inSpace = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			b.WriteRune(r)

			inSpace = false
		default:
			// 其余字符直接丢弃
			inSpace = false
		}
	}

	s = collapseRuns(b.String(), '-')
	s = strings.Trim(s, "-")

	if len(s) > maxTokenLength {
		s = strings.Trim(s[:maxTokenLength], "-")
	}

	if s == "" {
		return UnknownToken
	}

	return s
}

// collapseRuns 将连续出现的 c 折叠为单个字符.
func collapseRuns(s string, c byte) string {
	var b strings.Builder

	b.Grow(len(s))

	var prev byte

	for i := range len(s) {
		if s[i] == c && prev == c {
			continue
		}

		b.WriteByte(s[i])
		prev = s[i]
	}

	return b.String()
}
