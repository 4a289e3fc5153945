package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/prompts"
	"github.com/shouni/go-series-kit/pkg/retry"
)

const opBible = "generate bible"

// BibleRunner はシリーズのアイデアからプロジェクトバイブル（名前・前提・キャラクター）を生成します。
type BibleRunner struct {
	engine
}

// NewBibleRunner は依存関係を注入して初期化します。
func NewBibleRunner(cfg config.Config, pb prompts.PromptBuilder, backend ai.Backend, policy retry.Policy) *BibleRunner {
	return &BibleRunner{engine: newEngine(cfg, pb, backend, policy)}
}

// Run はアイデアから新しいプロジェクトを生成します。エピソードは空です。
func (r *BibleRunner) Run(ctx context.Context, idea string, sc domain.ScriptConfig, ac domain.AIConfig) (*domain.Project, error) {
	if blank(idea) {
		return nil, apperr.Validation(opBible, "シリーズのアイデアが空です")
	}
	sc = sc.FillDefaults()
	if ac.TextModel == "" {
		ac.TextModel = r.cfg.TextModel
	}
	if ac.ImageModel == "" {
		ac.ImageModel = r.cfg.ImageModel
	}

	prompt, err := r.buildPrompt(prompts.ModeBible, prompts.TemplateData{Idea: idea, Config: sc})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "BibleRunner: プロジェクトバイブルを生成しています", "model", ac.TextModel)
	resp, err := generateStructured[bibleResponse](ctx, r.engine, opBible, ai.StructuredRequest{
		Model:  ac.TextModel,
		Prompt: prompt,
		Schema: bibleSchema,
	})
	if err != nil {
		return nil, err
	}

	project, err := decodeBible(resp)
	if err != nil {
		return nil, err
	}
	project.Config = sc
	project.AIConfig = &ac

	slog.InfoContext(ctx, "BibleRunner: 生成が完了しました",
		"project", project.Name,
		"characters", len(project.Characters),
	)
	return project, nil
}

func decodeBible(resp bibleResponse) (*domain.Project, error) {
	name := strings.TrimSpace(resp.ProjectName)
	if name == "" {
		name = domain.DefaultProjectName
	}

	characters := make([]domain.Character, 0, len(resp.Characters))
	for i, c := range resp.Characters {
		if blank(c.Name) {
			return nil, apperr.Malformed(opBible, fmt.Errorf("キャラクター %d に名前がありません", i+1))
		}
		imagePrompt := c.ImagePrompt
		if blank(imagePrompt) {
			imagePrompt = c.Description
		}
		characters = append(characters, domain.Character{
			ID:          domain.NewID(),
			Name:        strings.TrimSpace(c.Name),
			Age:         c.Age,
			Description: c.Description,
			ImagePrompt: imagePrompt,
			Archetype:   c.Archetype,
			Personality: c.Personality,
			Colors:      c.Colors,
			DOB:         c.DOB,
		})
	}

	return &domain.Project{
		ID:         domain.NewID(),
		Name:       name,
		Premise:    resp.Premise,
		Characters: characters,
		Episodes:   []domain.Episode{},
		CreatedAt:  domain.NowMillis(),
	}, nil
}
