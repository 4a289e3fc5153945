package ai

import (
	"context"
	"strings"

	"github.com/shouni/go-series-kit/pkg/apperr"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// openAIPrefixes は OpenAI 互換エンドポイントに振り分けるモデルIDの接頭辞です。
var openAIPrefixes = []string{"gpt-", "dall-e", "o1", "o3", "o4"}

// Router はモデルIDに応じて Gemini と OpenAI 互換のバックエンドを切り替えます。
// どちらかが nil の場合、そのプロバイダ宛ての呼び出しは設定エラーになります。
type Router struct {
	gemini       Backend
	openai       Backend
	openAIModels map[string]bool
}

// NewRouter は Router を生成します。openAIModels に含まれるモデルは接頭辞に関わらず OpenAI 側へ送ります。
func NewRouter(gemini, openai Backend, openAIModels []string) *Router {
	models := make(map[string]bool, len(openAIModels))
	for _, m := range openAIModels {
		if m = strings.TrimSpace(m); m != "" {
			models[m] = true
		}
	}
	return &Router{gemini: gemini, openai: openai, openAIModels: models}
}

// IsOpenAIModel はモデルIDが OpenAI 互換エンドポイント宛てかを返します。
func (r *Router) IsOpenAIModel(model string) bool {
	if r.openAIModels[model] {
		return true
	}
	for _, p := range openAIPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func (r *Router) route(op, model string) (Backend, error) {
	if r.IsOpenAIModel(model) {
		if r.openai == nil {
			return nil, &apperr.Error{Kind: apperr.KindConfiguration, Op: op, Model: model, Message: "OPENAI_API_KEY が設定されていません"}
		}
		return r.openai, nil
	}
	if r.gemini == nil {
		return nil, &apperr.Error{Kind: apperr.KindConfiguration, Op: op, Model: model, Message: "GEMINI_API_KEY が設定されていません"}
	}
	return r.gemini, nil
}

func (r *Router) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	b, err := r.route("generate structured", req.Model)
	if err != nil {
		return "", err
	}
	return b.GenerateStructured(ctx, req)
}

func (r *Router) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	b, err := r.route("generate text", req.Model)
	if err != nil {
		return "", err
	}
	return b.GenerateText(ctx, req)
}

func (r *Router) GenerateImage(ctx context.Context, req ImageRequest) (*imagedom.ImageResponse, error) {
	b, err := r.route("generate image", req.Model)
	if err != nil {
		return nil, err
	}
	return b.GenerateImage(ctx, req)
}
