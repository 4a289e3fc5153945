package workflow

import (
	"github.com/shouni/go-series-kit/pkg/generator"
	"github.com/shouni/go-series-kit/pkg/runner"
)

var _ Workflow = (*Manager)(nil)

// BuildBibleRunner は、バイブル生成を担当する Runner を作成します。
func (m *Manager) BuildBibleRunner() BibleRunner {
	return runner.NewBibleRunner(m.cfg, m.promptBuilder, m.backend, m.policy)
}

// BuildDraftRunner は、ドラフト生成を担当する Runner を作成します。
func (m *Manager) BuildDraftRunner() DraftRunner {
	return m.drafts
}

// BuildContextRunner は、ストーリーの書き換えを担当する Runner を作成します。
// ドラフト生成と同じ Runner を共有します。
func (m *Manager) BuildContextRunner() ContextRunner {
	return runner.NewContextRunner(m.drafts)
}

// BuildSceneRunner は、シーン分解を担当する Runner を作成します。
func (m *Manager) BuildSceneRunner() SceneRunner {
	return runner.NewSceneRunner(m.cfg, m.promptBuilder, m.backend, m.policy)
}

// BuildVeoRunner は、動画プロンプト生成を担当する Runner を作成します。
func (m *Manager) BuildVeoRunner() VeoRunner {
	return runner.NewVeoRunner(m.cfg, m.promptBuilder, m.backend, m.policy)
}

// BuildCharacterInfoRunner は、キャラクター設定の推論を担当する Runner を作成します。
func (m *Manager) BuildCharacterInfoRunner() CharacterInfoRunner {
	return runner.NewCharacterInfoRunner(m.cfg, m.promptBuilder, m.backend, m.policy)
}

// BuildCharacterRefreshRunner は、外見記述の一括更新を担当する Runner を作成します。
func (m *Manager) BuildCharacterRefreshRunner() CharacterRefreshRunner {
	return runner.NewCharacterRefreshRunner(m.cfg, m.promptBuilder, m.backend, m.policy)
}

// BuildPremiseRunner は、前提の再生成を担当する Runner を作成します。
func (m *Manager) BuildPremiseRunner() PremiseRunner {
	return runner.NewPremiseRunner(m.cfg, m.promptBuilder, m.backend, m.policy)
}

// BuildImageBatch は、画像生成とストアへのマージを担当する BatchGenerator を作成します。
func (m *Manager) BuildImageBatch() ImageBatch {
	return generator.NewBatchGenerator(m.cfg, m.images, m.store)
}
