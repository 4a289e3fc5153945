package workflow

import (
	"context"

	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/generator"
	"github.com/shouni/go-series-kit/pkg/runner"
)

// Workflow は、シリーズ制作の各工程を担当する Runner を構築するためのインターフェースを定義します。
type Workflow interface {
	BuildBibleRunner() BibleRunner
	BuildDraftRunner() DraftRunner
	BuildContextRunner() ContextRunner
	BuildSceneRunner() SceneRunner
	BuildVeoRunner() VeoRunner
	BuildCharacterInfoRunner() CharacterInfoRunner
	BuildCharacterRefreshRunner() CharacterRefreshRunner
	BuildPremiseRunner() PremiseRunner
	BuildImageBatch() ImageBatch
}

// BibleRunner は、アイデアからプロジェクトのバイブル（名前・前提・キャラクター）を生成する責務を持ちます。
type BibleRunner interface {
	Run(ctx context.Context, idea string, sc domain.ScriptConfig, ac domain.AIConfig) (*domain.Project, error)
}

// DraftRunner は、エピソードのドラフト（ストーリーと台本）を生成する責務を持ちます。
type DraftRunner interface {
	Run(ctx context.Context, project domain.Project, req runner.DraftRequest) ([]domain.Episode, error)
	Regenerate(ctx context.Context, project domain.Project, episode domain.Episode, instruction string, castIDs []string) (domain.Episode, error)
}

// ContextRunner は、指示に従ってエピソードのストーリーを書き換える責務を持ちます。
type ContextRunner interface {
	Run(ctx context.Context, project domain.Project, episode domain.Episode, instruction string, castIDs []string) (domain.Episode, error)
}

// SceneRunner は、エピソードをシーンに分解、または既存のシーンを編集する責務を持ちます。
type SceneRunner interface {
	Run(ctx context.Context, project domain.Project, episode domain.Episode, req runner.SceneRequest) ([]domain.Scene, error)
	Edit(ctx context.Context, project domain.Project, episode domain.Episode, instruction string) ([]domain.Scene, error)
}

// VeoRunner は、シーンの動画プロンプトを生成する責務を持ちます。
type VeoRunner interface {
	Run(ctx context.Context, project domain.Project, episode domain.Episode, scene domain.Scene) (domain.Prompt, error)
}

// CharacterInfoRunner は、外見記述からキャラクターの設定を推論する責務を持ちます。
type CharacterInfoRunner interface {
	Run(ctx context.Context, project domain.Project, character domain.Character, visualPrompt string) (domain.Character, error)
}

// CharacterRefreshRunner は、スタイル変更に合わせてキャラクターの外見記述を更新する責務を持ちます。
type CharacterRefreshRunner interface {
	Run(ctx context.Context, project domain.Project) ([]domain.Character, error)
}

// PremiseRunner は、シリーズの前提を再生成する責務を持ちます。
type PremiseRunner interface {
	Run(ctx context.Context, project domain.Project) (string, error)
}

// ImageBatch は、キャラクターとシーンの画像を生成して保存する責務を持ちます。
type ImageBatch interface {
	Characters(ctx context.Context, projectID string) (generator.BatchReport, error)
	Character(ctx context.Context, projectID, characterID string) (string, error)
	Scenes(ctx context.Context, projectID, episodeID string) (generator.BatchReport, error)
	Scene(ctx context.Context, projectID, episodeID, sceneID string, frame domain.Frame) (string, error)
}
