package utils

import (
	"strings"
	"unicode"
)

// SanitizeLogMessage 移除控制字符，防止日志注入
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == '\n' || r == '\r' {
			sb.WriteRune(' ')
			continue
		}
		if r == '\t' || unicode.IsPrint(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogValue 截断并清洗用户输入（邮箱、文件名）
func SanitizeLogValue(value string) string {
	const maxLen = 80
	if len(value) > maxLen {
		value = value[:maxLen] + "..."
	}
	return SanitizeLogMessage(value)
}
