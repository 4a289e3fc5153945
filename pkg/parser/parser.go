package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON は AI の応答テキストから JSON 部分を取り出します。
// コードブロック、最外殻の {...}、応答全体の順に試します。
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if matches := JSONBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}

	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first != -1 && last > first {
		return raw[first : last+1]
	}
	return raw
}

// DecodeJSON は AI の応答を T にデコードします。
func DecodeJSON[T any](raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &v); err != nil {
		return v, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", Truncate(strings.TrimSpace(raw), 200), err)
	}
	return v, nil
}
