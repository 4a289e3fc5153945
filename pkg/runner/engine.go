package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/parser"
	"github.com/shouni/go-series-kit/pkg/prompts"
	"github.com/shouni/go-series-kit/pkg/retry"
)

// engine は各 Runner が共有する依存関係です。
type engine struct {
	cfg           config.Config
	promptBuilder prompts.PromptBuilder
	backend       ai.Backend
	policy        retry.Policy
}

func newEngine(cfg config.Config, pb prompts.PromptBuilder, backend ai.Backend, policy retry.Policy) engine {
	return engine{
		cfg:           cfg,
		promptBuilder: pb,
		backend:       backend,
		policy:        policy,
	}
}

func (e engine) buildPrompt(mode string, data prompts.TemplateData) (string, error) {
	prompt, err := e.promptBuilder.Build(mode, data)
	if err != nil {
		return "", fmt.Errorf("プロンプト生成に失敗: %w", err)
	}
	return prompt, nil
}

// textModel はプロジェクトのテキストモデルを返します。未設定なら設定値に戻します。
func (e engine) textModel(p *domain.Project) string {
	if p != nil {
		if m := p.Models().TextModel; m != "" {
			return m
		}
	}
	return e.cfg.TextModel
}

// generateStructured はリトライ付きで構造化出力を生成し、T にデコードします。
// デコードに失敗した場合は MalformedOutput として返し、再試行はしません。
func generateStructured[T any](ctx context.Context, e engine, op string, req ai.StructuredRequest) (T, error) {
	return retry.Do(ctx, e.policy, func(ctx context.Context) (T, error) {
		var zero T
		raw, err := e.backend.GenerateStructured(ctx, req)
		if err != nil {
			return zero, err
		}
		if strings.TrimSpace(raw) == "" {
			return zero, apperr.New(apperr.KindMalformedOutput, op, "AIからの応答が空です")
		}
		v, err := parser.DecodeJSON[T](raw)
		if err != nil {
			return zero, apperr.Malformed(op, err)
		}
		return v, nil
	})
}

func generateText(ctx context.Context, e engine, req ai.TextRequest) (string, error) {
	return retry.Do(ctx, e.policy, func(ctx context.Context) (string, error) {
		return e.backend.GenerateText(ctx, req)
	})
}

// blank は空白のみの文字列を判定します。
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
