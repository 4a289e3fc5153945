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

const opDrafts = "generate drafts"

// DraftRequest はエピソードドラフト生成の入力です。
type DraftRequest struct {
	Instruction string   // ユーザーの指示（エピソードの方向性）
	Count       int      // 生成するドラフト数
	CastIDs     []string // 登場させるキャラクター
	Duration    string   // 空の場合はプロジェクト設定の尺
}

// DraftRunner はタイトル・あらすじ・タイムスタンプ付き台本からなるエピソードドラフトを生成します。
type DraftRunner struct {
	engine
}

// NewDraftRunner は依存関係を注入して初期化します。
func NewDraftRunner(cfg config.Config, pb prompts.PromptBuilder, backend ai.Backend, policy retry.Policy) *DraftRunner {
	return &DraftRunner{engine: newEngine(cfg, pb, backend, policy)}
}

// Run はちょうど Count 件のドラフトを返します。シーンは空です。
func (r *DraftRunner) Run(ctx context.Context, project domain.Project, req DraftRequest) ([]domain.Episode, error) {
	if req.Count < 1 {
		return nil, apperr.Validation(opDrafts, "生成数は1以上を指定してください")
	}
	cfg := project.Config.FillDefaults()
	duration := req.Duration
	if blank(duration) {
		duration = cfg.Duration
	}
	cast := project.SelectCharacters(req.CastIDs)

	data := prompts.TemplateData{
		ProjectName: project.Name,
		Premise:     project.Premise,
		Config:      cfg,
		Duration:    duration,
		Instruction: req.Instruction,
		Count:       req.Count,
		Cast:        prompts.BuildCast(cast, r.cfg.StrictConsistency),
		CastNames:   prompts.CastNames(cast),
	}
	prompt, err := r.buildPrompt(prompts.ModeDrafts, data)
	if err != nil {
		return nil, err
	}

	model := r.textModel(&project)
	slog.InfoContext(ctx, "DraftRunner: エピソードドラフトを生成しています",
		"project", project.Name,
		"count", req.Count,
		"model", model,
	)
	resp, err := generateStructured[draftsResponse](ctx, r.engine, opDrafts, ai.StructuredRequest{
		Model:  model,
		Prompt: prompt,
		Schema: draftsSchema,
	})
	if err != nil {
		return nil, err
	}

	castIDs := append([]string{}, req.CastIDs...)
	return decodeDrafts(resp, req.Count, castIDs)
}

// Regenerate は既存のエピソードを指示に沿って書き直します。
// castIDs が nil の場合はエピソードのキャストを引き継ぎます。ID とシーンは保持されます。
func (r *DraftRunner) Regenerate(ctx context.Context, project domain.Project, episode domain.Episode, instruction string, castIDs []string) (domain.Episode, error) {
	if castIDs == nil {
		castIDs = episode.CharacterIDs
	}
	drafts, err := r.Run(ctx, project, DraftRequest{
		Instruction: rewriteInstruction(episode, instruction),
		Count:       1,
		CastIDs:     castIDs,
	})
	if err != nil {
		return episode, err
	}

	updated := episode.Clone()
	draft := drafts[0]
	updated.Title = draft.Title
	updated.Summary = draft.Summary
	updated.VoiceoverScript = draft.VoiceoverScript
	updated.SoundAtmosphere = draft.SoundAtmosphere
	updated.CharacterIDs = draft.CharacterIDs
	return updated, nil
}

func rewriteInstruction(episode domain.Episode, instruction string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rewrite this specific episode based on new instruction: %q.\n", instruction)
	fmt.Fprintf(&sb, "Original Title: %s\n", episode.Title)
	fmt.Fprintf(&sb, "Original Summary: %s", episode.Summary)
	return sb.String()
}

// decodeDrafts は多すぎる結果を切り詰め、足りない場合は MalformedOutput を返します。
func decodeDrafts(resp draftsResponse, count int, castIDs []string) ([]domain.Episode, error) {
	if len(resp.Drafts) < count {
		return nil, apperr.Malformed(opDrafts, fmt.Errorf("ドラフト数が不足しています (期待値 %d, 実際 %d)", count, len(resp.Drafts)))
	}

	episodes := make([]domain.Episode, 0, count)
	for i, d := range resp.Drafts[:count] {
		if blank(d.Summary) && blank(d.VoiceoverScript) {
			return nil, apperr.Malformed(opDrafts, fmt.Errorf("ドラフト %d にあらすじと台本がありません", i+1))
		}
		ep := domain.NewEpisode()
		if !blank(d.Title) {
			ep.Title = strings.TrimSpace(d.Title)
		}
		ep.Summary = d.Summary
		ep.VoiceoverScript = d.VoiceoverScript
		ep.SoundAtmosphere = d.SoundAtmosphere
		ep.CharacterIDs = append([]string{}, castIDs...)
		episodes = append(episodes, ep)
	}
	return episodes, nil
}
