package runner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/prompts"
	"github.com/shouni/go-series-kit/pkg/retry"
)

const (
	opCharacterInfo    = "extract character info"
	opCharacterRefresh = "refresh character prompts"
)

// CharacterInfoRunner は外見プロンプトからキャラクターの属性を推定します。
type CharacterInfoRunner struct {
	engine
}

// NewCharacterInfoRunner は依存関係を注入して初期化します。
func NewCharacterInfoRunner(cfg config.Config, pb prompts.PromptBuilder, backend ai.Backend, policy retry.Policy) *CharacterInfoRunner {
	return &CharacterInfoRunner{engine: newEngine(cfg, pb, backend, policy)}
}

// Run は visualPrompt を解析し、推定できた項目だけを character に上書きして返します。
// ImagePrompt には visualPrompt を設定します。
func (r *CharacterInfoRunner) Run(ctx context.Context, project domain.Project, character domain.Character, visualPrompt string) (domain.Character, error) {
	if blank(visualPrompt) {
		return character, apperr.Validation(opCharacterInfo, "外見プロンプトが空です")
	}

	prompt, err := r.buildPrompt(prompts.ModeCharacterInfo, prompts.TemplateData{VisualPrompt: visualPrompt})
	if err != nil {
		return character, err
	}

	resp, err := generateStructured[characterInfoResponse](ctx, r.engine, opCharacterInfo, ai.StructuredRequest{
		Model:  r.textModel(&project),
		Prompt: prompt,
		Schema: characterInfoSchema,
	})
	if err != nil {
		return character, err
	}

	merged := character.MergeInfo(domain.Character{
		Name:        resp.Name,
		Age:         resp.Age,
		Description: resp.Description,
		Archetype:   resp.Archetype,
		Personality: resp.Personality,
		Colors:      resp.Colors,
		DOB:         resp.DOB,
	})
	merged.ImagePrompt = visualPrompt
	slog.InfoContext(ctx, "CharacterInfoRunner: キャラクター情報を更新しました", "character", merged.String())
	return merged, nil
}

// CharacterRefreshRunner はプロジェクトの画風・雰囲気の変更に合わせて全キャラクターの ImagePrompt を書き直します。
type CharacterRefreshRunner struct {
	engine
}

// NewCharacterRefreshRunner は依存関係を注入して初期化します。
func NewCharacterRefreshRunner(cfg config.Config, pb prompts.PromptBuilder, backend ai.Backend, policy retry.Policy) *CharacterRefreshRunner {
	return &CharacterRefreshRunner{engine: newEngine(cfg, pb, backend, policy)}
}

// Run は更新後のキャラクター一覧を返します。
// モデルが返したIDのキャラクターだけが更新され、失敗時は元の一覧とエラーを返します。
func (r *CharacterRefreshRunner) Run(ctx context.Context, project domain.Project) ([]domain.Character, error) {
	original := append([]domain.Character(nil), project.Characters...)
	if len(original) == 0 {
		return original, nil
	}

	data := prompts.TemplateData{
		Config:     project.Config.FillDefaults(),
		Characters: prompts.CharacterBriefs(original),
	}
	prompt, err := r.buildPrompt(prompts.ModeCharacterRefresh, data)
	if err != nil {
		return original, err
	}

	resp, err := generateStructured[refreshResponse](ctx, r.engine, opCharacterRefresh, ai.StructuredRequest{
		Model:  r.textModel(&project),
		Prompt: prompt,
		Schema: refreshSchema,
	})
	if err != nil {
		return original, err
	}

	updates := make(map[string]string, len(resp.UpdatedCharacters))
	for _, u := range resp.UpdatedCharacters {
		if u.ID == "" || strings.TrimSpace(u.ImagePrompt) == "" {
			continue
		}
		updates[u.ID] = u.ImagePrompt
	}

	refreshed := make([]domain.Character, len(original))
	applied := 0
	for i, c := range original {
		if p, ok := updates[c.ID]; ok {
			c.ImagePrompt = p
			applied++
		}
		refreshed[i] = c
	}

	slog.InfoContext(ctx, "CharacterRefreshRunner: 外見プロンプトを更新しました",
		"updated", applied,
		"total", len(original),
		"ignored", len(resp.UpdatedCharacters)-applied,
	)
	return refreshed, nil
}
