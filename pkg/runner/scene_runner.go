package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/director"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/prompts"
	"github.com/shouni/go-series-kit/pkg/retry"
)

const (
	opScenes     = "generate scenes"
	opScenesEdit = "edit scenes"
)

// SceneRequest はシーン分解の入力です。
type SceneRequest struct {
	Count   int      // 0 以下の場合は台本と尺から推定
	CastIDs []string // nil の場合はエピソードのキャスト
	Strict  *bool    // キャストの外見に ImagePrompt を使う。nil の場合は Config.StrictConsistency
}

func (req SceneRequest) strict(cfg config.Config) bool {
	if req.Strict == nil {
		return cfg.StrictConsistency
	}
	return *req.Strict
}

// SceneRunner はエピソードの台本をシーン（開始・終了フレームと動画・音声プロンプト）に分解します。
type SceneRunner struct {
	engine
}

// NewSceneRunner は依存関係を注入して初期化します。
func NewSceneRunner(cfg config.Config, pb prompts.PromptBuilder, backend ai.Backend, policy retry.Policy) *SceneRunner {
	return &SceneRunner{engine: newEngine(cfg, pb, backend, policy)}
}

// Run は 1 から N まで番号付けされた、ちょうど N 件のシーンを返します。
func (r *SceneRunner) Run(ctx context.Context, project domain.Project, episode domain.Episode, req SceneRequest) ([]domain.Scene, error) {
	if !episode.HasStory() {
		return nil, apperr.Validation(opScenes, "シーン分解にはあらすじと台本が必要です")
	}
	cfg := project.Config.FillDefaults()

	count := req.Count
	if count < 1 {
		count = director.EstimateSceneCount(episode.VoiceoverScript, cfg.Duration)
	}
	castIDs := req.CastIDs
	if castIDs == nil {
		castIDs = episode.CharacterIDs
	}

	data := prompts.TemplateData{
		Config: cfg,
		Count:  count,
		Episode: prompts.EpisodeData{
			Title:   episode.Title,
			Summary: episode.Summary,
			Script:  episode.VoiceoverScript,
		},
		Cast: prompts.BuildCast(activeCast(&project, castIDs), req.strict(r.cfg)),
	}
	prompt, err := r.buildPrompt(prompts.ModeScenes, data)
	if err != nil {
		return nil, err
	}

	model := r.textModel(&project)
	slog.InfoContext(ctx, "SceneRunner: シーンを分解しています",
		"episode", episode.Title,
		"count", count,
		"model", model,
	)
	resp, err := generateStructured[scenesResponse](ctx, r.engine, opScenes, ai.StructuredRequest{
		Model:  model,
		Prompt: prompt,
		Schema: scenesSchema,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Scenes) < count {
		return nil, apperr.Malformed(opScenes, fmt.Errorf("シーン数が不足しています (期待値 %d, 実際 %d)", count, len(resp.Scenes)))
	}
	return toScenes(opScenes, resp.Scenes[:count])
}

// Edit は既存のシーンを指示に沿って書き直します。件数はモデルの出力に従います。
func (r *SceneRunner) Edit(ctx context.Context, project domain.Project, episode domain.Episode, instruction string) ([]domain.Scene, error) {
	if blank(instruction) {
		return nil, apperr.Validation(opScenesEdit, "編集内容の指示が空です")
	}
	if len(episode.Scenes) == 0 {
		return nil, apperr.Validation(opScenesEdit, "編集対象のシーンがありません")
	}

	data := prompts.TemplateData{
		Config:      project.Config.FillDefaults(),
		Instruction: instruction,
		Cast:        prompts.BuildCast(project.Characters, true),
		Scenes:      prompts.SceneBriefs(episode.Scenes),
	}
	prompt, err := r.buildPrompt(prompts.ModeScenesEdit, data)
	if err != nil {
		return nil, err
	}

	resp, err := generateStructured[scenesResponse](ctx, r.engine, opScenesEdit, ai.StructuredRequest{
		Model:  r.textModel(&project),
		Prompt: prompt,
		Schema: scenesSchema,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Scenes) == 0 {
		return nil, apperr.New(apperr.KindMalformedOutput, opScenesEdit, "シーンが返されませんでした")
	}

	scenes, err := toScenes(opScenesEdit, resp.Scenes)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "SceneRunner: シーンを書き直しました", "before", len(episode.Scenes), "after", len(scenes))
	return scenes, nil
}

// toScenes は出力順に 1 から番号を振り直し、新しいIDを発行します。
// 開始・終了フレームのプロンプトがどちらも空のシーンがあれば MalformedOutput を返します。
func toScenes(op string, items []sceneItem) ([]domain.Scene, error) {
	scenes := make([]domain.Scene, 0, len(items))
	for i, item := range items {
		if item.StartImagePrompt.IsZero() && item.EndImagePrompt.IsZero() {
			return nil, apperr.Malformed(op, fmt.Errorf("シーン %d に画像プロンプトがありません", i+1))
		}
		scenes = append(scenes, item.toScene(i+1))
	}
	return scenes, nil
}

// activeCast は指定されたキャラクターを返します。指定がない場合は全キャラクターです。
func activeCast(project *domain.Project, ids []string) []domain.Character {
	if len(ids) == 0 {
		return project.Characters
	}
	return project.SelectCharacters(ids)
}
