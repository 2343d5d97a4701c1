package naming

import (
	"fmt"
	"strconv"
	"strings"
)

// tokenKind 命名模板的令牌种类.词表封闭，渲染时穷举.
type tokenKind int

const (
	tokenDate tokenKind = iota
	tokenOwner
	tokenVendor
	tokenAmount
	tokenCategory
	tokenIndex
	tokenTags
)

// tokenKinds 令牌名到种类的映射，即模板的全部合法词表.
var tokenKinds = map[string]tokenKind{
	"date":     tokenDate,
	"owner":    tokenOwner,
	"vendor":   tokenVendor,
	"amount":   tokenAmount,
	"category": tokenCategory,
	"index":    tokenIndex,
	"tags":     tokenTags,
}

// MaxPatternLength 命名模板的最大长度.
const MaxPatternLength = 200

// invalidPatternChars Windows 与类 Unix 系统上不允许出现在文件名中的字符.
const invalidPatternChars = `<>:"/\|?*`

// reservedDeviceNames Windows 保留设备名，模板中不区分大小写禁止出现.
var reservedDeviceNames = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

// segment 模板解析后的单个片段：字面文本或命名令牌.
type segment struct {
	literal string
	kind    tokenKind
	isToken bool
}

// parsePattern 将模板切分为字面片段与令牌片段.不成对的花括号按字面处理.
func parsePattern(pattern string) []segment {
	var segs []segment

	for len(pattern) > 0 {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			segs = append(segs, segment{literal: pattern})

			break
		}

		closing := strings.IndexByte(pattern[open:], '}')
		if closing < 0 {
			segs = append(segs, segment{literal: pattern})

			break
		}

		if open > 0 {
			segs = append(segs, segment{literal: pattern[:open]})
		}

		name := pattern[open+1 : open+closing]
		if kind, ok := tokenKinds[name]; ok {
			segs = append(segs, segment{kind: kind, isToken: true})
		} else {
			// 未知令牌保留字面形式，校验阶段会拒绝
			segs = append(segs, segment{literal: pattern[open : open+closing+1]})
		}

		pattern = pattern[open+closing+1:]
	}

	return segs
}

// ValidatePattern 校验用户配置的命名模板.错误信息面向用户，逐条指明原因.
func ValidatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("naming pattern cannot be empty")
	}

	if i := strings.IndexAny(pattern, invalidPatternChars); i >= 0 {
		return fmt.Errorf("naming pattern contains invalid character %q", pattern[i])
	}

	if len(pattern) > MaxPatternLength {
		return fmt.Errorf("naming pattern is too long: %d characters (max %d)", len(pattern), MaxPatternLength)
	}

	if pattern != strings.TrimSpace(pattern) {
		return fmt.Errorf("naming pattern cannot start or end with whitespace")
	}

	if strings.HasPrefix(pattern, ".") || strings.HasSuffix(pattern, ".") {
		return fmt.Errorf("naming pattern cannot start or end with a dot")
	}

	if strings.Contains(pattern, "{ext}") {
		return fmt.Errorf("the {ext} token is not allowed: the file extension is always taken from the uploaded file")
	}

	if err := validateTokens(pattern); err != nil {
		return err
	}

	upper := strings.ToUpper(pattern)
	for _, name := range reservedDeviceNames {
		if strings.Contains(upper, name) {
			return fmt.Errorf("naming pattern contains reserved device name %q", name)
		}
	}

	return nil
}

// validateTokens 检查模板中出现的每个 {token} 是否在词表内.
func validateTokens(pattern string) error {
	rest := pattern

	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return nil
		}

		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return nil
		}

		name := rest[open+1 : open+closing]
		if _, ok := tokenKinds[name]; !ok {
			return fmt.Errorf("unknown token %q in naming pattern", name)
		}

		rest = rest[open+closing+1:]
	}
}

// Fields 渲染模板所需的票据字段.
type Fields struct {
	Date     string
	Owner    string
	Vendor   string
	Amount   float64
	Category string
	Tags     []string
}

// Render 将模板渲染为文件名主体（不含冲突后缀和扩展名）.
// 渲染后折叠由空令牌造成的重复分隔符并去掉首尾分隔符.
func Render(pattern string, f Fields, index int) string {
	var b strings.Builder

	for _, seg := range parsePattern(pattern) {
		if !seg.isToken {
			b.WriteString(seg.literal)

			continue
		}

		b.WriteString(renderToken(seg.kind, f, index))
	}

	s := collapseRuns(b.String(), '-')
	s = collapseRuns(s, '_')

	return strings.Trim(s, "-_")
}

// renderToken 渲染单个令牌.词表封闭，switch 穷举.
func renderToken(kind tokenKind, f Fields, index int) string {
	switch kind {
	case tokenDate:
		return DateOnly(f.Date)
	case tokenOwner:
		return Sanitize(f.Owner)
	case tokenVendor:
		return Sanitize(f.Vendor)
	case tokenAmount:
		return FormatAmount(f.Amount)
	case tokenCategory:
		return Sanitize(f.Category)
	case tokenIndex:
		return strconv.Itoa(index)
	case tokenTags:
		return renderTags(f.Tags)
	default:
		return ""
	}
}

// renderTags 净化各标签名并以连字符连接，无标签时为空串.
func renderTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}

	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, Sanitize(t))
	}

	return strings.Join(parts, "-")
}

// FormatAmount 将金额格式化为两位小数并用连字符替换小数点，如 100.5 -> "100-50".
// 超过两位小数时按最近偶数舍入（strconv.FormatFloat 的正确舍入行为）.
func FormatAmount(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', 2, 64), ".", "-")
}
