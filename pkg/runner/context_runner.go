package runner

import (
	"context"
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"
)

const opContext = "change context"

// ContextRunner はエピソードの方向性を変更し、ドラフトを書き直します。
// 書き直したエピソードのシーンは古い台本に基づくため破棄されます。
type ContextRunner struct {
	drafts *DraftRunner
}

// NewContextRunner は DraftRunner を共有して初期化します。
func NewContextRunner(drafts *DraftRunner) *ContextRunner {
	return &ContextRunner{drafts: drafts}
}

// Run は指示とキャストでエピソードを書き直し、シーンを空にして返します。
func (r *ContextRunner) Run(ctx context.Context, project domain.Project, episode domain.Episode, instruction string, castIDs []string) (domain.Episode, error) {
	if blank(instruction) {
		return episode, apperr.Validation(opContext, "変更内容の指示が空です")
	}

	slog.InfoContext(ctx, "ContextRunner: エピソードを書き直しています",
		"episode", episode.ID,
		"scenes_discarded", len(episode.Scenes),
	)
	updated, err := r.drafts.Regenerate(ctx, project, episode, instruction, castIDs)
	if err != nil {
		return episode, err
	}
	updated.Scenes = []domain.Scene{}
	return updated, nil
}
