package runner

import (
	"context"
	"strings"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/prompts"
	"github.com/shouni/go-series-kit/pkg/retry"
)

// PremiseRunner はプロジェクトの前提（あらすじ）を画風・雰囲気に合わせて書き直します。
type PremiseRunner struct {
	engine
}

// NewPremiseRunner は依存関係を注入して初期化します。
func NewPremiseRunner(cfg config.Config, pb prompts.PromptBuilder, backend ai.Backend, policy retry.Policy) *PremiseRunner {
	return &PremiseRunner{engine: newEngine(cfg, pb, backend, policy)}
}

// Run は新しい前提を返します。失敗した場合や応答が空の場合は現在の前提を返します。
func (r *PremiseRunner) Run(ctx context.Context, project domain.Project) (string, error) {
	data := prompts.TemplateData{
		Premise: project.Premise,
		Config:  project.Config.FillDefaults(),
	}
	prompt, err := r.buildPrompt(prompts.ModePremise, data)
	if err != nil {
		return project.Premise, err
	}

	text, err := generateText(ctx, r.engine, ai.TextRequest{
		Model:  r.textModel(&project),
		Prompt: prompt,
	})
	if err != nil {
		return project.Premise, err
	}
	if text = strings.TrimSpace(text); text == "" {
		return project.Premise, nil
	}
	return text, nil
}
