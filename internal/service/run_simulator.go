package service

import (
	"regexp"
	"strings"
)

// 模拟运行只回显字面量 print，不求值任何表达式
var printStmt = regexp.MustCompile(`^\s*print\s*\(\s*(?:f?)(?:"([^"]*)"|'([^']*)')\s*\)\s*$`)

// simulateRun 对提交代码做玩具级的"运行"：逐行回显 print 的字符串字面量，
// 其余语句产出占位行。真实执行/沙箱明确不在本服务范围内。
func simulateRun(code string) string {
	var out []string
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if m := printStmt.FindStringSubmatch(line); m != nil {
			text := m[1]
			if text == "" {
				text = m[2]
			}
			out = append(out, text)
			continue
		}
		if strings.HasPrefix(trimmed, "print") {
			out = append(out, "<simulated output>")
		}
	}
	if len(out) == 0 {
		return "(no output)"
	}
	return strings.Join(out, "\n")
}
