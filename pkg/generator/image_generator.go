package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/asset"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/prompts"
	"github.com/shouni/go-series-kit/pkg/retry"

	"golang.org/x/time/rate"
)

// ImageGenerator は構造化プロンプトを平文化し、レート制限とリトライを挟んで画像を生成します。
type ImageGenerator struct {
	backend ai.Backend
	policy  retry.Policy
	limiter *rate.Limiter
}

// NewImageGenerator は ImageGenerator の新しいインスタンスを初期化します。
// interval が 0 以下の場合はレート制限を行いません。
func NewImageGenerator(backend ai.Backend, policy retry.Policy, interval time.Duration) *ImageGenerator {
	var limiter *rate.Limiter
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), DefaultBurst)
	}
	return &ImageGenerator{
		backend: backend,
		policy:  policy,
		limiter: limiter,
	}
}

// Generate は画像を生成し、data URL 形式で返します。
func (g *ImageGenerator) Generate(ctx context.Context, prompt domain.Prompt, ratio domain.AspectRatio, model string) (string, error) {
	text := prompts.FlattenImagePrompt(prompt)
	if blank(text) {
		return "", apperr.Validation(opImage, "画像プロンプトが空です")
	}

	resp, err := retry.Do(ctx, g.policy, func(ctx context.Context) (string, error) {
		if g.limiter != nil {
			slog.DebugContext(ctx, "APIレート制限を確認中...")
			if err := g.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("リミッター待機中にエラーが発生しました: %w", err)
			}
		}

		img, err := g.backend.GenerateImage(ctx, ai.NewImageRequest(model, text, string(ratio)))
		if err != nil {
			return "", err
		}
		if img == nil || len(img.Data) == 0 {
			return "", apperr.New(apperr.KindBackend, opImage, "画像データが返されませんでした")
		}
		return asset.EncodeDataURL(img.Data, img.MimeType), nil
	})
	if err != nil {
		return "", err
	}
	return resp, nil
}
