package pipeline

import (
	"context"

	"github.com/shouni/go-series-kit/internal/builder"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/publisher"
	"github.com/shouni/go-series-kit/pkg/store"
	"github.com/shouni/go-series-kit/pkg/workflow"
)

// Service は CLI と HTTP サーバーから呼ばれる操作をまとめたものなのだ。
// 生成結果は必ず Store に保存してから返すのだ。
//
// 後続の処理（画像生成や外見プロンプトの更新）だけが失敗した場合は、
// 保存済みの値とエラーを両方返すのだ。
type Service struct {
	store     store.Store
	wf        workflow.Workflow
	publisher *publisher.SeriesPublisher
	outputDir string
}

// New は AppContext から Service を生成するのだ。
func New(app *builder.AppContext) *Service {
	var outputDir string
	if app.Config != nil {
		outputDir = app.Config.OutputDir
	}
	return &Service{
		store:     app.Store,
		wf:        app.Workflow,
		publisher: app.Publisher,
		outputDir: outputDir,
	}
}

// ListProjects は全プロジェクトを返すのだ。
func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.store.Load(ctx)
}

// GetProject は ID に一致するプロジェクトを返すのだ。
func (s *Service) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	return s.store.Get(ctx, projectID)
}

// Subscribe は保存のたびに全プロジェクトを受け取る関数を登録するのだ。
func (s *Service) Subscribe(fn func([]domain.Project)) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// loadEpisode はプロジェクトとエピソードのスナップショットを取得するのだ。
func (s *Service) loadEpisode(ctx context.Context, projectID, episodeID string) (domain.Project, domain.Episode, error) {
	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return domain.Project{}, domain.Episode{}, err
	}
	ep := p.FindEpisode(episodeID)
	if ep == nil {
		return domain.Project{}, domain.Episode{}, apperr.NotFound("load episode", "エピソードが見つかりません: %s", episodeID)
	}
	return p, ep.Clone(), nil
}

// updateEpisode は最新のプロジェクトのエピソードに fn を適用して保存するのだ。
func (s *Service) updateEpisode(ctx context.Context, projectID, episodeID string, fn func(*domain.Episode) error) (domain.Episode, error) {
	var updated domain.Episode
	_, err := s.store.Update(ctx, projectID, func(p *domain.Project) error {
		ep := p.FindEpisode(episodeID)
		if ep == nil {
			return apperr.NotFound("update episode", "エピソードが見つかりません: %s", episodeID)
		}
		if err := fn(ep); err != nil {
			return err
		}
		updated = ep.Clone()
		return nil
	})
	return updated, err
}

// updateScene は最新のプロジェクトのシーンに fn を適用して保存するのだ。
func (s *Service) updateScene(ctx context.Context, projectID, episodeID, sceneID string, fn func(*domain.Scene)) (domain.Scene, error) {
	var updated domain.Scene
	_, err := s.updateEpisode(ctx, projectID, episodeID, func(ep *domain.Episode) error {
		sc := ep.FindScene(sceneID)
		if sc == nil {
			return apperr.NotFound("update scene", "シーンが見つかりません: %s", sceneID)
		}
		fn(sc)
		updated = *sc
		return nil
	})
	return updated, err
}

func findScene(ep domain.Episode, sceneID string) (domain.Scene, error) {
	sc := ep.FindScene(sceneID)
	if sc == nil {
		return domain.Scene{}, apperr.NotFound("find scene", "シーンが見つかりません: %s", sceneID)
	}
	return *sc, nil
}
