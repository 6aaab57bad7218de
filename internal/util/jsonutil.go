package util

import "regexp"

// 大模型回复里提取 JSON 对象：优先匹配 markdown 代码块，其次匹配裸对象
var (
	jsonFencePattern    = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	jsonObjectPattern   = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	trailingCommaFixups = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSONObject 从模型回复中提取 JSON 对象文本，找不到返回空串。
// 模型经常把 JSON 包在 ```json 代码块里，或带上尾逗号，这里统一清理。
func ExtractJSONObject(content string) string {
	raw := ""
	if m := jsonFencePattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else if m := jsonObjectPattern.FindString(content); m != "" {
		raw = m
	}
	if raw == "" {
		return ""
	}
	return trailingCommaFixups.ReplaceAllString(raw, "$1")
}
