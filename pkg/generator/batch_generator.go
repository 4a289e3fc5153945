package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/prompts"
	"github.com/shouni/go-series-kit/pkg/store"
)

// BatchGenerator はキャラクターのポートレートとシーンのフレーム画像を順番に生成します。
// 画像は1枚生成するたびに最新のプロジェクトへマージして保存します。
type BatchGenerator struct {
	cfg    config.Config
	images PromptImageGenerator
	store  store.Store
}

// NewBatchGenerator は BatchGenerator の新しいインスタンスを初期化します。
func NewBatchGenerator(cfg config.Config, images PromptImageGenerator, st store.Store) *BatchGenerator {
	return &BatchGenerator{
		cfg:    cfg,
		images: images,
		store:  st,
	}
}

func (b *BatchGenerator) imageModel(p *domain.Project) string {
	if m := p.Models().ImageModel; m != "" {
		return m
	}
	return b.cfg.ImageModel
}

func (b *BatchGenerator) portraitAspect() domain.AspectRatio {
	if b.cfg.PortraitAspect != "" {
		return b.cfg.PortraitAspect
	}
	return config.DefaultPortraitRatio
}

// Characters は画像のないキャラクターのポートレートを生成します。
// 個別の失敗はログに残して続行し、権限エラーの場合は残りを中止します。
func (b *BatchGenerator) Characters(ctx context.Context, projectID string) (BatchReport, error) {
	var report BatchReport

	project, err := b.store.Get(ctx, projectID)
	if err != nil {
		return report, err
	}
	model := b.imageModel(&project)
	style := project.Config.FillDefaults().Style

	for _, c := range project.Characters {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if c.HasImage() {
			report.Skipped++
			continue
		}

		url, err := b.images.Generate(ctx, domain.PlainPrompt(prompts.CharacterPortraitPrompt(c, style)), b.portraitAspect(), model)
		if err != nil {
			if apperr.IsPermission(err) {
				report.Aborted = true
				return report, permissionAbort(opCharacterBatch, model, err)
			}
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			slog.WarnContext(ctx, "キャラクター画像の生成に失敗しました", "character", c.Name, "error", err)
			continue
		}

		if err := b.mergeCharacterImage(ctx, projectID, c.ID, url); err != nil {
			return report, err
		}
		report.Generated++
		slog.InfoContext(ctx, "キャラクター画像を保存しました", "character", c.Name)
	}
	return report, nil
}

// Character は1人のキャラクターのポートレートを、既存の画像があっても生成し直します。
func (b *BatchGenerator) Character(ctx context.Context, projectID, characterID string) (string, error) {
	project, err := b.store.Get(ctx, projectID)
	if err != nil {
		return "", err
	}
	c := project.FindCharacter(characterID)
	if c == nil {
		return "", apperr.NotFound(opCharacterBatch, "キャラクターが見つかりません: %s", characterID)
	}

	style := project.Config.FillDefaults().Style
	url, err := b.images.Generate(ctx, domain.PlainPrompt(prompts.CharacterPortraitPrompt(*c, style)), b.portraitAspect(), b.imageModel(&project))
	if err != nil {
		return "", err
	}
	if err := b.mergeCharacterImage(ctx, projectID, characterID, url); err != nil {
		return "", err
	}
	return url, nil
}

// Scenes はエピソードの各シーンについて、開始フレーム・終了フレームの順に未生成の画像を生成します。
// 開始フレームの生成に失敗したシーンは終了フレームを試さずに次のシーンへ進みます。
func (b *BatchGenerator) Scenes(ctx context.Context, projectID, episodeID string) (BatchReport, error) {
	var report BatchReport

	project, err := b.store.Get(ctx, projectID)
	if err != nil {
		return report, err
	}
	episode := project.FindEpisode(episodeID)
	if episode == nil {
		return report, apperr.NotFound(opSceneBatch, "エピソードが見つかりません: %s", episodeID)
	}
	model := b.imageModel(&project)
	ratio := project.Config.FillDefaults().AspectRatio

	for _, scene := range episode.Scenes {
		for _, frame := range domain.Frames {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if scene.ImageURL(frame) != "" || scene.ImagePrompt(frame).IsZero() {
				report.Skipped++
				continue
			}

			url, err := b.images.Generate(ctx, scene.ImagePrompt(frame), ratio, model)
			if err != nil {
				if apperr.IsPermission(err) {
					report.Aborted = true
					return report, permissionAbort(opSceneBatch, model, err)
				}
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				report.Failed++
				slog.WarnContext(ctx, "シーン画像の生成に失敗しました", "scene", scene.Number, "frame", frame, "error", err)
				break
			}

			if err := b.mergeSceneImage(ctx, projectID, episodeID, scene.ID, frame, url); err != nil {
				return report, err
			}
			report.Generated++
			slog.InfoContext(ctx, "シーン画像を保存しました", "scene", scene.Number, "frame", frame)
		}
	}
	return report, nil
}

// Scene は1つのシーンの指定フレームを、既存の画像があっても生成し直します。
func (b *BatchGenerator) Scene(ctx context.Context, projectID, episodeID, sceneID string, frame domain.Frame) (string, error) {
	project, err := b.store.Get(ctx, projectID)
	if err != nil {
		return "", err
	}
	episode := project.FindEpisode(episodeID)
	if episode == nil {
		return "", apperr.NotFound(opSceneBatch, "エピソードが見つかりません: %s", episodeID)
	}
	scene := episode.FindScene(sceneID)
	if scene == nil {
		return "", apperr.NotFound(opSceneBatch, "シーンが見つかりません: %s", sceneID)
	}

	ratio := project.Config.FillDefaults().AspectRatio
	url, err := b.images.Generate(ctx, scene.ImagePrompt(frame), ratio, b.imageModel(&project))
	if err != nil {
		return "", err
	}
	if err := b.mergeSceneImage(ctx, projectID, episodeID, sceneID, frame, url); err != nil {
		return "", err
	}
	return url, nil
}

// mergeCharacterImage は最新のプロジェクトに画像を反映します。キャラクターが削除されていれば何もしません。
func (b *BatchGenerator) mergeCharacterImage(ctx context.Context, projectID, characterID, url string) error {
	_, err := b.store.Update(ctx, projectID, func(p *domain.Project) error {
		if c := p.FindCharacter(characterID); c != nil {
			c.ImageURL = url
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャラクター画像の保存に失敗しました: %w", err)
	}
	return nil
}

// mergeSceneImage は最新のプロジェクトに画像を反映します。シーンが置き換えられていれば何もしません。
func (b *BatchGenerator) mergeSceneImage(ctx context.Context, projectID, episodeID, sceneID string, frame domain.Frame, url string) error {
	_, err := b.store.Update(ctx, projectID, func(p *domain.Project) error {
		ep := p.FindEpisode(episodeID)
		if ep == nil {
			return nil
		}
		if s := ep.FindScene(sceneID); s != nil {
			s.SetImageURL(frame, url)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("シーン画像の保存に失敗しました: %w", err)
	}
	return nil
}

func permissionAbort(op, model string, err error) error {
	return &apperr.Error{
		Kind:    apperr.KindPermission,
		Op:      op,
		Message: fmt.Sprintf("モデル %s の画像生成権限がありません (403)。残りの生成を中止しました", model),
		Status:  403,
		Model:   model,
		Err:     err,
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
