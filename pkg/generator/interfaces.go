package generator

import (
	"context"

	"github.com/shouni/go-series-kit/pkg/domain"
)

// PromptImageGenerator は、プロンプトから画像を1枚生成し data URL として返すためのインターフェースを定義します。
type PromptImageGenerator interface {
	Generate(ctx context.Context, prompt domain.Prompt, ratio domain.AspectRatio, model string) (string, error)
}
