package util

import (
	"strings"
	"unicode"
)

// Truncate 截断字符串到最大长度，按 rune 计数避免切断多字节字符
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// TruncatePreview 截断并追加省略号，用于挑战模式脚手架注释里的材料预览
func TruncatePreview(s string, max int) string {
	t := Truncate(s, max)
	if t != s {
		t += "..."
	}
	return t
}

// NormalizeCode 去除所有空白字符后比较，提交判定是纯语法层面的对比
func NormalizeCode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
