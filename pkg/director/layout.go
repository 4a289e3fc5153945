package director

import (
	"strings"

	"github.com/shouni/go-series-kit/pkg/domain"
)

// imageRatios は画像モデル（Gemini・Imagen）が受け付ける縦横比です。21:9 は含まれません。
var imageRatios = map[domain.AspectRatio]bool{
	domain.AspectWide:     true,
	domain.AspectPortrait: true,
	domain.AspectSquare:   true,
	domain.AspectClassic:  true,
	"3:4":                 true,
}

// fallbackRatios は未対応の縦横比を最も近い対応比に置き換えるための表です。
var fallbackRatios = map[domain.AspectRatio]domain.AspectRatio{
	domain.AspectCinematic: domain.AspectWide,
}

// IsImagenModel は Imagen 系モデルかどうかを返します。
func IsImagenModel(model string) bool {
	return strings.HasPrefix(model, "imagen")
}

// NearestAspectRatio は画像モデルが対応していない縦横比を近いものに置き換えます。
// 空の場合は 16:9 を返します。
func NearestAspectRatio(ratio domain.AspectRatio) domain.AspectRatio {
	if ratio == "" {
		return domain.AspectWide
	}
	if imageRatios[ratio] {
		return ratio
	}
	if r, ok := fallbackRatios[ratio]; ok {
		return r
	}
	return domain.AspectWide
}

// ImageSize は解像度指定が必要なモデルに対してサイズ文字列を返します。
func ImageSize(model string) string {
	if model == "gemini-3-pro-image-preview" {
		return "1K"
	}
	return ""
}

// OpenAIImageSize は縦横比を OpenAI 画像 API のサイズ指定に変換します。
func OpenAIImageSize(ratio domain.AspectRatio) string {
	switch ratio {
	case domain.AspectSquare:
		return "1024x1024"
	case domain.AspectPortrait, "3:4":
		return "1024x1792"
	default:
		return "1792x1024"
	}
}
