package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/generator"
	"github.com/shouni/go-series-kit/pkg/publisher"
	"github.com/shouni/go-series-kit/pkg/runner"
)

// CreateDrafts はエピソードのドラフトを生成し、プロジェクトの先頭に追加するのだ。
func (s *Service) CreateDrafts(ctx context.Context, projectID string, req runner.DraftRequest) ([]domain.Episode, error) {
	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	drafts, err := s.wf.BuildDraftRunner().Run(ctx, p, req)
	if err != nil {
		return nil, fmt.Errorf("ドラフトの生成に失敗したのだ: %w", err)
	}
	if _, err := s.store.Update(ctx, projectID, func(p *domain.Project) error {
		p.PrependEpisodes(drafts...)
		return nil
	}); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "ドラフトを追加したのだ", "project", projectID, "count", len(drafts))
	return drafts, nil
}

// AddEpisode は空のエピソードを先頭に追加するのだ。
func (s *Service) AddEpisode(ctx context.Context, projectID, title string) (domain.Episode, error) {
	ep := domain.NewEpisode()
	if t := strings.TrimSpace(title); t != "" {
		ep.Title = t
	}
	if _, err := s.store.Update(ctx, projectID, func(p *domain.Project) error {
		p.PrependEpisodes(ep)
		return nil
	}); err != nil {
		return domain.Episode{}, err
	}
	return ep, nil
}

// SaveDraft は手で編集したストーリーと台本を保存するのだ。シーンはそのまま残すのだ。
func (s *Service) SaveDraft(ctx context.Context, projectID, episodeID, summary, script string) (domain.Episode, error) {
	return s.updateEpisode(ctx, projectID, episodeID, func(ep *domain.Episode) error {
		ep.Summary = summary
		ep.VoiceoverScript = script
		return nil
	})
}

// SetCast はエピソードのキャストを置き換えるのだ。存在しないIDは受け付けないのだ。
func (s *Service) SetCast(ctx context.Context, projectID, episodeID string, castIDs []string) (domain.Episode, error) {
	var updated domain.Episode
	_, err := s.store.Update(ctx, projectID, func(p *domain.Project) error {
		for _, id := range castIDs {
			if p.FindCharacter(id) == nil {
				return apperr.Validation("set cast", fmt.Sprintf("キャラクターが見つかりません: %s", id))
			}
		}
		ep := p.FindEpisode(episodeID)
		if ep == nil {
			return apperr.NotFound("set cast", "エピソードが見つかりません: %s", episodeID)
		}
		ep.CharacterIDs = append([]string{}, castIDs...)
		updated = ep.Clone()
		return nil
	})
	return updated, err
}

// RegenerateDraft はエピソードのドラフトだけを書き直すのだ。キャストとシーンは残すのだ。
func (s *Service) RegenerateDraft(ctx context.Context, projectID, episodeID, instruction string) (domain.Episode, error) {
	p, ep, err := s.loadEpisode(ctx, projectID, episodeID)
	if err != nil {
		return domain.Episode{}, err
	}

	rewritten, err := s.wf.BuildDraftRunner().Regenerate(ctx, p, ep, instruction, nil)
	if err != nil {
		return domain.Episode{}, fmt.Errorf("ドラフトの再生成に失敗したのだ: %w", err)
	}
	return s.replaceDraft(ctx, projectID, rewritten, false)
}

// ChangeContext は指示とキャストに従ってストーリーを書き直すのだ。既存のシーンは消えるのだ。
func (s *Service) ChangeContext(ctx context.Context, projectID, episodeID, instruction string, castIDs []string) (domain.Episode, error) {
	p, ep, err := s.loadEpisode(ctx, projectID, episodeID)
	if err != nil {
		return domain.Episode{}, err
	}

	rewritten, err := s.wf.BuildContextRunner().Run(ctx, p, ep, instruction, castIDs)
	if err != nil {
		return domain.Episode{}, fmt.Errorf("コンテキストの変更に失敗したのだ: %w", err)
	}
	return s.replaceDraft(ctx, projectID, rewritten, true)
}

// replaceDraft は最新のエピソードにドラフトの項目を書き戻すのだ。
// 生成中に追加された画像を消さないよう、clearScenes が false の場合はシーンに触れないのだ。
func (s *Service) replaceDraft(ctx context.Context, projectID string, draft domain.Episode, clearScenes bool) (domain.Episode, error) {
	return s.updateEpisode(ctx, projectID, draft.ID, func(ep *domain.Episode) error {
		ep.Title = draft.Title
		ep.Summary = draft.Summary
		ep.VoiceoverScript = draft.VoiceoverScript
		ep.SoundAtmosphere = draft.SoundAtmosphere
		ep.CharacterIDs = append([]string{}, draft.CharacterIDs...)
		if clearScenes {
			ep.Scenes = []domain.Scene{}
		}
		return nil
	})
}

// GenerateScenes はエピソードをシーンに分解して保存するのだ。
// withImages が true の場合は、続けて全シーンの開始・終了フレームを生成するのだ。
func (s *Service) GenerateScenes(ctx context.Context, projectID, episodeID string, req runner.SceneRequest, withImages bool) (domain.Episode, generator.BatchReport, error) {
	var report generator.BatchReport

	p, ep, err := s.loadEpisode(ctx, projectID, episodeID)
	if err != nil {
		return domain.Episode{}, report, err
	}

	scenes, err := s.wf.BuildSceneRunner().Run(ctx, p, ep, req)
	if err != nil {
		return domain.Episode{}, report, fmt.Errorf("シーンの生成に失敗したのだ: %w", err)
	}
	updated, err := s.updateEpisode(ctx, projectID, episodeID, func(ep *domain.Episode) error {
		ep.Scenes = scenes
		return nil
	})
	if err != nil || !withImages {
		return updated, report, err
	}

	report, imgErr := s.wf.BuildImageBatch().Scenes(ctx, projectID, episodeID)
	_, latest, err := s.loadEpisode(ctx, projectID, episodeID)
	if err != nil {
		return updated, report, err
	}
	if imgErr != nil {
		slog.WarnContext(ctx, "シーン画像の生成を中断したのだ", "episode", episodeID, "error", imgErr)
	}
	return latest, report, imgErr
}

// EditScenes は指示に従って既存のシーンを書き直すのだ。
func (s *Service) EditScenes(ctx context.Context, projectID, episodeID, instruction string) (domain.Episode, error) {
	p, ep, err := s.loadEpisode(ctx, projectID, episodeID)
	if err != nil {
		return domain.Episode{}, err
	}

	scenes, err := s.wf.BuildSceneRunner().Edit(ctx, p, ep, instruction)
	if err != nil {
		return domain.Episode{}, fmt.Errorf("シーンの編集に失敗したのだ: %w", err)
	}
	return s.updateEpisode(ctx, projectID, episodeID, func(ep *domain.Episode) error {
		ep.Scenes = scenes
		return nil
	})
}

// GenerateVeoPrompt はシーンの動画プロンプトを生成して保存するのだ。
func (s *Service) GenerateVeoPrompt(ctx context.Context, projectID, episodeID, sceneID string) (domain.Scene, error) {
	p, ep, err := s.loadEpisode(ctx, projectID, episodeID)
	if err != nil {
		return domain.Scene{}, err
	}
	sc, err := findScene(ep, sceneID)
	if err != nil {
		return domain.Scene{}, err
	}

	prompt, err := s.wf.BuildVeoRunner().Run(ctx, p, ep, sc)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("動画プロンプトの生成に失敗したのだ: %w", err)
	}
	return s.updateScene(ctx, projectID, episodeID, sceneID, func(sc *domain.Scene) {
		sc.VeoPrompt = prompt
	})
}

// ExportCSV はエピソードのシーン一覧を CSV として書き出すのだ。
func (s *Service) ExportCSV(ctx context.Context, projectID, episodeID string, w io.Writer) error {
	p, ep, err := s.loadEpisode(ctx, projectID, episodeID)
	if err != nil {
		return err
	}
	return publisher.ExportEpisodeCSV(w, p, ep)
}

// PublishEpisode はエピソードの CSV・画像・絵コンテを出力ディレクトリに書き出すのだ。
func (s *Service) PublishEpisode(ctx context.Context, projectID, episodeID, outputDir string) (publisher.PublishResult, error) {
	p, ep, err := s.loadEpisode(ctx, projectID, episodeID)
	if err != nil {
		return publisher.PublishResult{}, err
	}
	if outputDir == "" {
		outputDir = publisher.ResolveOutputPath(s.outputDir, publisher.SafeName(p.Name))
	}
	return s.publisher.PublishEpisode(ctx, p, ep, publisher.Options{OutputDir: outputDir})
}

// SaveAsset はエクスポート結果を outputDir にファイルとして保存するのだ。
func (s *Service) SaveAsset(ctx context.Context, outputDir, fileName string, r io.Reader) (string, error) {
	if outputDir == "" {
		outputDir = s.outputDir
	}
	return s.publisher.WriteFile(ctx, outputDir, fileName, r)
}
