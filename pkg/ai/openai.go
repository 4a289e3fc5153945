package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/asset"
	"github.com/shouni/go-series-kit/pkg/director"
	"github.com/shouni/go-series-kit/pkg/domain"

	"github.com/sashabaranov/go-openai"
	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// OpenAIBackend は OpenAI 互換エンドポイント（OpenAI, LocalAI など）を使う Backend 実装です。
type OpenAIBackend struct {
	client *openai.Client
}

// NewOpenAIBackend は API キーとベースURLから OpenAIBackend を初期化します。
func NewOpenAIBackend(apiKey, baseURL string) (*OpenAIBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.New(apperr.KindConfiguration, "openai", "OPENAI_API_KEY が設定されていません")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg)}, nil
}

// GenerateStructured は json_schema 形式のレスポンスフォーマットで JSON を生成します。
func (b *OpenAIBackend) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	const op = "openai: generate structured"
	if err := validatePrompt(op, req.Model, req.Prompt); err != nil {
		return "", err
	}

	format := &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	if req.Schema != nil {
		format = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "response",
				Schema: req.Schema,
			},
		}
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          req.Model,
		Messages:       []openai.ChatCompletionMessage{userMessage(req.Prompt, req.Parts)},
		ResponseFormat: format,
	})
	if err != nil {
		return "", classifyOpenAIError(op, req.Model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperr.Malformed(op, fmt.Errorf("モデル %s から空の応答が返されました", req.Model))
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateText は自由記述のテキストを生成します。
func (b *OpenAIBackend) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	const op = "openai: generate text"
	if err := validatePrompt(op, req.Model, req.Prompt); err != nil {
		return "", err
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: []openai.ChatCompletionMessage{userMessage(req.Prompt, nil)},
	})
	if err != nil {
		return "", classifyOpenAIError(op, req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateImage は画像 API で base64 形式の画像を1枚生成します。
func (b *OpenAIBackend) GenerateImage(ctx context.Context, req ImageRequest) (*imagedom.ImageResponse, error) {
	const op = "openai: generate image"
	if err := validatePrompt(op, req.Model, req.Prompt); err != nil {
		return nil, err
	}

	imgReq := openai.ImageRequest{
		Prompt: req.Prompt,
		Model:  req.Model,
		N:      1,
		Size:   director.OpenAIImageSize(domain.AspectRatio(req.AspectRatio)),
	}
	if strings.HasPrefix(req.Model, "dall-e") {
		imgReq.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := b.client.CreateImage(ctx, imgReq)
	if err != nil {
		return nil, classifyOpenAIError(op, req.Model, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, &apperr.Error{Kind: apperr.KindBackend, Op: op, Model: req.Model, Message: "画像が返されませんでした"}
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, apperr.Malformed(op, fmt.Errorf("画像データのデコードに失敗しました: %w", err))
	}
	return &imagedom.ImageResponse{Data: data, MimeType: "image/png"}, nil
}

// userMessage は添付画像を data URL の image_url パートとして含むユーザーメッセージを組み立てます。
func userMessage(prompt string, parts []Part) openai.ChatCompletionMessage {
	if len(parts) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt}
	}

	multi := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}
	for _, p := range parts {
		if len(p.Data) == 0 {
			continue
		}
		multi = append(multi, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    asset.EncodeDataURL(p.Data, p.MimeType),
				Detail: openai.ImageURLDetailAuto,
			},
		})
		if p.Label != "" {
			multi = append(multi, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Label})
		}
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: multi}
}
