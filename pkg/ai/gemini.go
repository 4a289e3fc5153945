package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/director"
	"github.com/shouni/go-series-kit/pkg/domain"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"google.golang.org/genai"
)

const (
	jsonMimeType        = "application/json"
	defaultImageMime    = "image/jpeg"
	defaultGeminiTemper = float32(0.7)
)

// GeminiBackend は Gemini API（google.golang.org/genai）を使う Backend 実装です。
type GeminiBackend struct {
	client      *genai.Client
	temperature float32
}

// GeminiOption は GeminiBackend の任意設定です。
type GeminiOption func(*GeminiBackend)

// WithTemperature はテキスト生成時の temperature を指定します。
func WithTemperature(t float32) GeminiOption {
	return func(b *GeminiBackend) { b.temperature = t }
}

// NewGeminiBackend は API キーから GeminiBackend を初期化します。
// キーが空の場合はネットワークに触れる前に設定エラーを返します。
func NewGeminiBackend(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.New(apperr.KindConfiguration, "gemini", "GEMINI_API_KEY が設定されていません")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "gemini", fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err))
	}

	b := &GeminiBackend{client: client, temperature: defaultGeminiTemper}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// GenerateStructured は ResponseJsonSchema で出力形式を制約して JSON を生成します。
func (b *GeminiBackend) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	const op = "gemini: generate structured"
	if err := validatePrompt(op, req.Model, req.Prompt); err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(b.temperature),
		ResponseMIMEType: jsonMimeType,
	}
	if req.Schema != nil {
		cfg.ResponseJsonSchema = req.Schema
	}

	resp, err := b.client.Models.GenerateContent(ctx, req.Model, buildContents(req.Prompt, req.Parts), cfg)
	if err != nil {
		return "", classifyGenAIError(op, req.Model, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", apperr.Malformed(op, fmt.Errorf("モデル %s から空の応答が返されました", req.Model))
	}
	return text, nil
}

// GenerateText は自由記述のテキストを生成します。
func (b *GeminiBackend) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	const op = "gemini: generate text"
	if err := validatePrompt(op, req.Model, req.Prompt); err != nil {
		return "", err
	}

	resp, err := b.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(b.temperature),
	})
	if err != nil {
		return "", classifyGenAIError(op, req.Model, err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// GenerateImage はモデル種別に応じて Imagen API または Gemini の画像出力を使い分けます。
func (b *GeminiBackend) GenerateImage(ctx context.Context, req ImageRequest) (*imagedom.ImageResponse, error) {
	const op = "gemini: generate image"
	if err := validatePrompt(op, req.Model, req.Prompt); err != nil {
		return nil, err
	}

	ratio := director.NearestAspectRatio(domain.AspectRatio(req.AspectRatio))
	if string(ratio) != req.AspectRatio {
		slog.DebugContext(ctx, "未対応の縦横比を置き換えました", "model", req.Model, "requested", req.AspectRatio, "used", ratio)
	}

	if director.IsImagenModel(req.Model) {
		return b.generateImagen(ctx, req, ratio)
	}
	return b.generateInlineImage(ctx, req, ratio)
}

func (b *GeminiBackend) generateImagen(ctx context.Context, req ImageRequest, ratio domain.AspectRatio) (*imagedom.ImageResponse, error) {
	const op = "imagen: generate images"
	resp, err := b.client.Models.GenerateImages(ctx, req.Model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    string(ratio),
		OutputMIMEType: defaultImageMime,
	})
	if err != nil {
		return nil, classifyGenAIError(op, req.Model, err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, &apperr.Error{Kind: apperr.KindBackend, Op: op, Model: req.Model, Message: "画像が返されませんでした（安全フィルタの可能性があります）"}
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = defaultImageMime
	}
	return &imagedom.ImageResponse{Data: img.ImageBytes, MimeType: mime}, nil
}

func (b *GeminiBackend) generateInlineImage(ctx context.Context, req ImageRequest, ratio domain.AspectRatio) (*imagedom.ImageResponse, error) {
	const op = "gemini: generate image content"
	cfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: string(ratio),
			ImageSize:   director.ImageSize(req.Model),
		},
	}
	if req.Seed != nil {
		cfg.Seed = genai.Ptr(int32(*req.Seed & 0x7FFFFFFF))
	}

	resp, err := b.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, classifyGenAIError(op, req.Model, err)
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &imagedom.ImageResponse{Data: part.InlineData.Data, MimeType: mime}, nil
			}
		}
	}
	return nil, &apperr.Error{Kind: apperr.KindBackend, Op: op, Model: req.Model, Message: "応答に画像データが含まれていませんでした"}
}

// buildContents はテキストプロンプトに続けて、画像とその説明ラベルを順に並べます。
func buildContents(prompt string, extra []Part) []*genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, p := range extra {
		if len(p.Data) == 0 {
			continue
		}
		parts = append(parts, genai.NewPartFromBytes(p.Data, p.MimeType))
		if p.Label != "" {
			parts = append(parts, genai.NewPartFromText(p.Label))
		}
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
