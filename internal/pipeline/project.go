package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/director"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/generator"
	"github.com/shouni/go-series-kit/pkg/publisher"
)

// CreateProject はアイデアからバイブルを生成して保存し、続けてキャラクターのポートレートを生成するのだ。
// 画像生成の失敗はプロジェクトの作成を取り消さないのだ。
func (s *Service) CreateProject(ctx context.Context, idea string, sc domain.ScriptConfig, ac domain.AIConfig) (domain.Project, generator.BatchReport, error) {
	var report generator.BatchReport

	p, err := s.CreateBible(ctx, idea, sc, ac)
	if err != nil {
		return domain.Project{}, report, err
	}

	report, imgErr := s.wf.BuildImageBatch().Characters(ctx, p.ID)
	saved, err := s.store.Get(ctx, p.ID)
	if err != nil {
		return p, report, err
	}
	if imgErr != nil {
		slog.WarnContext(ctx, "キャラクター画像の自動生成を中断したのだ", "project", p.ID, "error", imgErr)
		return saved, report, imgErr
	}
	return saved, report, nil
}

// CreateBible はバイブルだけを生成して保存するのだ。ポートレートは生成しないのだ。
func (s *Service) CreateBible(ctx context.Context, idea string, sc domain.ScriptConfig, ac domain.AIConfig) (domain.Project, error) {
	p, err := s.wf.BuildBibleRunner().Run(ctx, idea, sc, ac)
	if err != nil {
		return domain.Project{}, fmt.Errorf("バイブルの生成に失敗したのだ: %w", err)
	}
	if err := s.store.Put(ctx, *p); err != nil {
		return domain.Project{}, fmt.Errorf("プロジェクトの保存に失敗したのだ: %w", err)
	}
	slog.InfoContext(ctx, "プロジェクトを作成したのだ",
		"project", p.ID,
		"name", p.Name,
		"characters", len(p.Characters),
	)
	return *p, nil
}

// SaveSettings はシリーズの演出設定を保存するのだ。
// スタイルかムードが変わり refresh が true の場合は、キャラクターの外見プロンプトも書き直すのだ。
func (s *Service) SaveSettings(ctx context.Context, projectID string, sc domain.ScriptConfig, refresh bool) (domain.Project, error) {
	if sc.AspectRatio != "" && !sc.AspectRatio.Valid() {
		return domain.Project{}, apperr.Validation("save settings", fmt.Sprintf("未対応の縦横比です: %s", sc.AspectRatio))
	}

	var changed bool
	p, err := s.store.Update(ctx, projectID, func(p *domain.Project) error {
		changed = director.StyleChanged(p.Config, sc)
		p.Config = sc
		return nil
	})
	if err != nil {
		return domain.Project{}, err
	}
	if !changed || !refresh {
		return p, nil
	}

	refreshed, err := s.RefreshCharacters(ctx, projectID)
	if err != nil {
		slog.WarnContext(ctx, "キャラクターの外見プロンプトの更新に失敗したのだ", "project", projectID, "error", err)
		return p, err
	}
	return refreshed, nil
}

// SaveAIConfig はプロジェクトで使用するモデルを保存するのだ。
func (s *Service) SaveAIConfig(ctx context.Context, projectID string, ac domain.AIConfig) (domain.Project, error) {
	if ac.IsZero() {
		return domain.Project{}, apperr.Validation("save ai config", "モデルが指定されていません")
	}
	return s.store.Update(ctx, projectID, func(p *domain.Project) error {
		merged := p.Models()
		if ac.TextModel != "" {
			merged.TextModel = ac.TextModel
		}
		if ac.ImageModel != "" {
			merged.ImageModel = ac.ImageModel
		}
		p.AIConfig = &merged
		return nil
	})
}

// RefreshCharacters は全キャラクターの外見プロンプトを現在のスタイルに合わせて書き直すのだ。
func (s *Service) RefreshCharacters(ctx context.Context, projectID string) (domain.Project, error) {
	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}

	chars, err := s.wf.BuildCharacterRefreshRunner().Run(ctx, p)
	if err != nil {
		return p, err
	}

	prompts := make(map[string]string, len(chars))
	for _, c := range chars {
		prompts[c.ID] = c.ImagePrompt
	}
	return s.store.Update(ctx, projectID, func(p *domain.Project) error {
		for i := range p.Characters {
			if v, ok := prompts[p.Characters[i].ID]; ok {
				p.Characters[i].ImagePrompt = v
			}
		}
		return nil
	})
}

// RegeneratePremise はシリーズの前提を書き直して保存するのだ。
func (s *Service) RegeneratePremise(ctx context.Context, projectID string) (string, error) {
	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return "", err
	}

	premise, err := s.wf.BuildPremiseRunner().Run(ctx, p)
	if err != nil {
		return premise, err
	}
	if _, err := s.store.Update(ctx, projectID, func(p *domain.Project) error {
		p.Premise = premise
		return nil
	}); err != nil {
		return premise, err
	}
	return premise, nil
}

// Import はエクスポートされた JSON を取り込み、新しいプロジェクトを先頭に追加するのだ。
func (s *Service) Import(ctx context.Context, data []byte) (publisher.ImportResult, error) {
	var result publisher.ImportResult
	_, err := s.store.Modify(ctx, func(current []domain.Project) ([]domain.Project, error) {
		r, err := publisher.Import(current, data)
		if err != nil {
			return nil, err
		}
		result = r
		return append(r.Projects, current...), nil
	})
	if err != nil {
		return publisher.ImportResult{}, err
	}
	slog.InfoContext(ctx, "プロジェクトを取り込んだのだ", "added", result.Added, "skipped", result.Skipped, "renamed", result.Renamed)
	return result, nil
}

// ExportLibrary は全プロジェクトを書き出すのだ。
func (s *Service) ExportLibrary(ctx context.Context, w io.Writer) error {
	projects, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	return publisher.ExportLibrary(w, projects)
}

// ExportProject は1つのプロジェクトを書き出すのだ。
func (s *Service) ExportProject(ctx context.Context, projectID string, w io.Writer) error {
	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return err
	}
	return publisher.ExportProject(w, p)
}

// ExportCharacters はプロジェクトのキャラクター一覧を書き出すのだ。
func (s *Service) ExportCharacters(ctx context.Context, projectID string, w io.Writer) error {
	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return err
	}
	return publisher.ExportCharacters(w, p)
}
