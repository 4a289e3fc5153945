package parser

import "regexp"

var (
	// JSONBlockRegex は Markdown のコードブロック（```json ... ```）の中身をキャプチャします。
	JSONBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")
)
