package pipeline

import (
	"context"
	"fmt"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"
)

// SaveCharacter はキャラクターを追加または置き換えるのだ。
// 新しいキャラクターを episodeID 付きで追加した場合は、そのエピソードのキャストにも加えるのだ。
func (s *Service) SaveCharacter(ctx context.Context, projectID, episodeID string, c domain.Character) (domain.Character, error) {
	if c.ID == "" {
		c.ID = domain.NewID()
	}

	_, err := s.store.Update(ctx, projectID, func(p *domain.Project) error {
		var ep *domain.Episode
		if episodeID != "" {
			if ep = p.FindEpisode(episodeID); ep == nil {
				return apperr.NotFound("save character", "エピソードが見つかりません: %s", episodeID)
			}
		}

		isNew := p.FindCharacter(c.ID) == nil
		p.UpsertCharacter(c)
		if isNew && ep != nil {
			ep.AddCast(c.ID)
		}
		return nil
	})
	if err != nil {
		return domain.Character{}, err
	}
	return c, nil
}

// AddCharacter は空のキャラクターを追加するのだ。
func (s *Service) AddCharacter(ctx context.Context, projectID, episodeID, name string) (domain.Character, error) {
	c := domain.NewCharacter()
	c.Name = name
	return s.SaveCharacter(ctx, projectID, episodeID, c)
}

// UpdateCharacterInfo は外見プロンプトからキャラクターの設定を推論して保存するのだ。
func (s *Service) UpdateCharacterInfo(ctx context.Context, projectID, characterID, visualPrompt string) (domain.Character, error) {
	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return domain.Character{}, err
	}
	c := p.FindCharacter(characterID)
	if c == nil {
		return domain.Character{}, apperr.NotFound("character info", "キャラクターが見つかりません: %s", characterID)
	}

	merged, err := s.wf.BuildCharacterInfoRunner().Run(ctx, p, *c, visualPrompt)
	if err != nil {
		return domain.Character{}, fmt.Errorf("キャラクター情報の推論に失敗したのだ: %w", err)
	}

	var saved domain.Character
	_, err = s.store.Update(ctx, projectID, func(p *domain.Project) error {
		latest := p.FindCharacter(characterID)
		if latest == nil {
			return apperr.NotFound("character info", "キャラクターが見つかりません: %s", characterID)
		}
		// 推論中に生成された画像は残すのだ
		imageURL := latest.ImageURL
		*latest = merged
		if latest.ImageURL == "" {
			latest.ImageURL = imageURL
		}
		saved = *latest
		return nil
	})
	return saved, err
}
