package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-series-kit/internal/config"
	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/publisher"
	"github.com/shouni/go-series-kit/pkg/store"
	"github.com/shouni/go-series-kit/pkg/workflow"
)

// BuildAppContext は設定から Store・Workflow・Publisher を組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	return buildAppContext(ctx, cfg, nil)
}

// BuildOfflineAppContext はモデルを呼ばないコマンド用に AppContext を組み立てるのだ。
// API キーが無い場合でも起動でき、生成系の操作だけが設定エラーを返すのだ。
func BuildOfflineAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	if cfg.HasCredential() {
		return BuildAppContext(ctx, cfg)
	}
	return buildAppContext(ctx, cfg, ai.NewRouter(nil, nil, nil))
}

func buildAppContext(ctx context.Context, cfg *config.Config, backend ai.Backend) (*AppContext, error) {
	st, err := InitializeStore(cfg)
	if err != nil {
		return nil, err
	}

	wf, err := workflow.New(ctx, workflow.ManagerArgs{
		Config:  cfg.Kit,
		Store:   st,
		Backend: backend,
	})
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗したのだ: %w", err)
	}

	pub := publisher.NewSeriesPublisher(publisher.NewLocalWriter())
	return NewAppContext(cfg, st, wf, pub), nil
}

// InitializeStore はデータディレクトリにプロジェクトストアを開きます。
func InitializeStore(cfg *config.Config) (*store.FileStore, error) {
	st, err := store.NewFileStore(cfg.Kit.DataDir, cfg.Kit.StoreKey, cfg.Kit.StoreCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトストアの初期化に失敗したのだ: %w", err)
	}
	slog.Debug("プロジェクトストアを開いたのだ", "path", st.Path())
	return st, nil
}
