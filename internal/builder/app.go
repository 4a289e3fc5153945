package builder

import (
	"github.com/shouni/go-series-kit/internal/config"
	"github.com/shouni/go-series-kit/pkg/publisher"
	"github.com/shouni/go-series-kit/pkg/store"
	"github.com/shouni/go-series-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各コマンドやサーバーに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config    *config.Config             // Configは、環境変数とCLIフラグから読み込まれた設定です。
	Store     store.Store                // Storeは、プロジェクト一覧の永続化先です。
	Workflow  workflow.Workflow          // Workflowは、各工程の Runner を構築します。
	Publisher *publisher.SeriesPublisher // Publisherは、エピソードの成果物をファイルに書き出します。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	st store.Store,
	wf workflow.Workflow,
	pub *publisher.SeriesPublisher,
) *AppContext {
	return &AppContext{
		Config:    cfg,
		Store:     st,
		Workflow:  wf,
		Publisher: pub,
	}
}
