package director

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// SecondsPerScene は1シーンあたりの尺（秒）です。
	SecondsPerScene = 6
	// WordsPerScene は 130wpm・6秒/シーンを前提とした1シーンあたりの語数です。
	WordsPerScene = 13
	// MinScenes は台本ベースの推定における最小シーン数です。
	MinScenes = 3
	// DefaultDurationSeconds は尺の記述に数値が含まれない場合の既定値です。
	DefaultDurationSeconds = 60
	// minScriptLength を超える台本がある場合のみ語数から推定します。
	minScriptLength = 50
)

var numberRegex = regexp.MustCompile(`(\d+(\.\d+)?)`)

// ParseSeconds は "90s" や "2m" のような自由記述の尺を秒数に変換します。
// "ms" を含まない "m" があれば分として扱います。
func ParseSeconds(duration string) float64 {
	d := strings.ToLower(strings.TrimSpace(duration))

	match := numberRegex.FindString(d)
	if match == "" {
		return DefaultDurationSeconds
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return DefaultDurationSeconds
	}

	if strings.Contains(d, "m") && !strings.Contains(d, "ms") {
		return value * 60
	}
	return value
}

// SceneCountFromDuration は尺の記述からシーン数を推定します。下限はありません。
func SceneCountFromDuration(duration string) int {
	return int(math.Ceil(ParseSeconds(duration) / SecondsPerScene))
}

// ScriptUsable は台本が語数推定に使える長さかを返します。
func ScriptUsable(script string) bool {
	return len(strings.TrimSpace(script)) > minScriptLength
}

// SceneCountFromScript は台本の語数からシーン数を推定します。最低 MinScenes です。
func SceneCountFromScript(script string) int {
	words := len(strings.Fields(script))
	return max(MinScenes, int(math.Ceil(float64(words)/WordsPerScene)))
}

// EstimateSceneCount はエピソード画面での既定シーン数を返します。
// 十分な台本があれば語数から、なければ尺から推定し、いずれも MinScenes を下限とします。
func EstimateSceneCount(script, duration string) int {
	if ScriptUsable(script) {
		return SceneCountFromScript(script)
	}
	return max(MinScenes, SceneCountFromDuration(duration))
}
