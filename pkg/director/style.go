package director

import (
	"strings"

	"github.com/shouni/go-series-kit/pkg/domain"
)

// StyleChanged はキャラクターの画像プロンプトを書き直す必要があるほどスタイルまたはムードが変わったかを返します。
func StyleChanged(before, after domain.ScriptConfig) bool {
	return !strings.EqualFold(strings.TrimSpace(before.Style), strings.TrimSpace(after.Style)) ||
		!strings.EqualFold(strings.TrimSpace(before.Mood), strings.TrimSpace(after.Mood))
}
