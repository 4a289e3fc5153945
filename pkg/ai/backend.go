package ai

import (
	"context"
	"strings"

	"github.com/shouni/go-series-kit/pkg/apperr"

	"github.com/invopop/jsonschema"
	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// Backend は生成AIプロバイダへの呼び出しを抽象化します。
// 再試行は行いません。呼び出し側で retry.Do を重ねてください。
type Backend interface {
	// GenerateStructured は Schema に沿った JSON テキストを生成します。
	GenerateStructured(ctx context.Context, req StructuredRequest) (string, error)
	// GenerateText は自由記述のテキストを生成します。
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	// GenerateImage はプロンプトと縦横比から画像を1枚生成します。
	GenerateImage(ctx context.Context, req ImageRequest) (*imagedom.ImageResponse, error)
}

// Part はテキストプロンプトに添付するバイナリ入力です。
type Part struct {
	Label    string // 画像の直後に挿入する説明文
	Data     []byte
	MimeType string
}

// StructuredRequest は構造化出力の生成要求です。
type StructuredRequest struct {
	Model  string
	Prompt string
	Schema *jsonschema.Schema
	Parts  []Part
}

// TextRequest は自由記述テキストの生成要求です。
type TextRequest struct {
	Model  string
	Prompt string
}

// ImageRequest は画像生成要求です。
type ImageRequest struct {
	Model string
	imagedom.ImageGenerationRequest
}

// NewImageRequest はプロンプトと縦横比から ImageRequest を組み立てます。
func NewImageRequest(model, prompt, aspectRatio string) ImageRequest {
	return ImageRequest{
		Model: model,
		ImageGenerationRequest: imagedom.ImageGenerationRequest{
			Prompt:      prompt,
			AspectRatio: aspectRatio,
		},
	}
}

func validatePrompt(op, model, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return apperr.Validation(op, "プロンプトが空です")
	}
	if strings.TrimSpace(model) == "" {
		return apperr.Validation(op, "モデルIDが指定されていません")
	}
	return nil
}
