package store

import (
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/domain"
)

// Migrate は古いドキュメントを現在の形式に揃えます。
// aiConfig を持たないプロジェクトには移行用のデフォルトを設定します。
func Migrate(projects []domain.Project) []domain.Project {
	for i := range projects {
		p := &projects[i]
		p.Normalize()

		if dangling := p.DanglingCharacterIDs(); len(dangling) > 0 {
			slog.Warn("存在しないキャラクターを参照しているエピソードがあります",
				"project", p.ID,
				"episodes", len(dangling),
			)
		}
	}
	return projects
}
