package parser

import "unicode/utf8"

// Truncate はエラーメッセージ用に文字列を maxLen バイト以内に切り詰めます。
// マルチバイト文字の途中では切りません。
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
