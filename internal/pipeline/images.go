package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/asset"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/generator"
)

// GenerateCharacterImages は画像のないキャラクターのポートレートを生成するのだ。
func (s *Service) GenerateCharacterImages(ctx context.Context, projectID string) (generator.BatchReport, error) {
	return s.wf.BuildImageBatch().Characters(ctx, projectID)
}

// RegenerateCharacterImage は1人のポートレートを作り直すのだ。
func (s *Service) RegenerateCharacterImage(ctx context.Context, projectID, characterID string) (string, error) {
	return s.wf.BuildImageBatch().Character(ctx, projectID, characterID)
}

// UploadCharacterImage はローカルの画像ファイルをポートレートとして設定するのだ。
func (s *Service) UploadCharacterImage(ctx context.Context, projectID, characterID, path string) (string, error) {
	url, err := asset.LoadImageFile(path)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "upload character image", err)
	}

	_, err = s.store.Update(ctx, projectID, func(p *domain.Project) error {
		c := p.FindCharacter(characterID)
		if c == nil {
			return apperr.NotFound("upload character image", "キャラクターが見つかりません: %s", characterID)
		}
		c.ImageURL = url
		return nil
	})
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "ポートレートを差し替えたのだ", "character", characterID, "path", path)
	return url, nil
}

// GenerateSceneImages は画像のないシーンフレームを順番に生成するのだ。
func (s *Service) GenerateSceneImages(ctx context.Context, projectID, episodeID string) (generator.BatchReport, error) {
	return s.wf.BuildImageBatch().Scenes(ctx, projectID, episodeID)
}

// RegenerateSceneImage はシーンの1フレームを作り直すのだ。
func (s *Service) RegenerateSceneImage(ctx context.Context, projectID, episodeID, sceneID string, frame domain.Frame) (string, error) {
	if err := validFrame(frame); err != nil {
		return "", err
	}
	return s.wf.BuildImageBatch().Scene(ctx, projectID, episodeID, sceneID, frame)
}

// UploadSceneImage はローカルの画像ファイルをシーンのフレームとして設定するのだ。
func (s *Service) UploadSceneImage(ctx context.Context, projectID, episodeID, sceneID string, frame domain.Frame, path string) (string, error) {
	if err := validFrame(frame); err != nil {
		return "", err
	}
	url, err := asset.LoadImageFile(path)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "upload scene image", err)
	}

	if _, err := s.updateScene(ctx, projectID, episodeID, sceneID, func(sc *domain.Scene) {
		sc.SetImageURL(frame, url)
	}); err != nil {
		return "", err
	}
	return url, nil
}

func validFrame(f domain.Frame) error {
	if f != domain.FrameStart && f != domain.FrameEnd {
		return apperr.Validation("scene frame", fmt.Sprintf("フレームは start か end を指定してください: %q", f))
	}
	return nil
}
