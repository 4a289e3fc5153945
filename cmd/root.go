package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-series-kit/internal/builder"
	"github.com/shouni/go-series-kit/internal/config"
	"github.com/shouni/go-series-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

const (
	appName = "series"

	// annotationOffline が付いたコマンドは API キーなしでも動くのだ。
	annotationOffline = "offline"
)

var (
	opts   config.Options
	appCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "動画シリーズのバイブル・エピソード・シーン・画像・動画プロンプトを生成するのだ。",
	Long: `アイデアからシリーズのバイブル（前提とキャラクター）を作り、
エピソードのドラフト、シーン分解、開始・終了フレーム画像、Veo 用の動画プロンプトまでを
順番に生成してプロジェクトストアに保存するのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 操作対象 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ProjectID, "project", "p", "", "対象プロジェクトのIDなのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.EpisodeID, "episode", "e", "", "対象エピソードのIDなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.SceneID, "scene", "", "対象シーンのIDなのだ。")

	// --- AIモデル ---
	rootCmd.PersistentFlags().StringVar(&opts.TextModel, "model", "", "既定のテキストモデルを上書きするのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "既定の画像モデルを上書きするのだ。")

	// --- 出力 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "CSV・画像・絵コンテの出力先ディレクトリなのだ。")
}

// preRunAppE は、コマンド実行前に設定の読み込みと必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	cfg.ApplyOptions(opts)
	config.SetupLogger(os.Stderr, cfg)
	appCfg = cfg

	if cmd.Annotations[annotationOffline] == "true" {
		return nil
	}
	if !cfg.HasCredential() {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY または OPENAI_API_KEY が設定されていません。モデルの呼び出しには必須なのだ")
	}
	return nil
}

// newService はコマンドに合わせて AppContext を組み立て、Service を返すのだ。
func newService(cmd *cobra.Command) (*pipeline.Service, error) {
	build := builder.BuildAppContext
	if cmd.Annotations[annotationOffline] == "true" {
		build = builder.BuildOfflineAppContext
	}
	app, err := build(cmd.Context(), appCfg)
	if err != nil {
		return nil, err
	}
	return pipeline.New(app), nil
}

func offline() map[string]string {
	return map[string]string{annotationOffline: "true"}
}

func requireProject() error {
	if opts.ProjectID == "" {
		return fmt.Errorf("--project でプロジェクトIDを指定してほしいのだ")
	}
	return nil
}

func requireEpisode() error {
	if err := requireProject(); err != nil {
		return err
	}
	if opts.EpisodeID == "" {
		return fmt.Errorf("--episode でエピソードIDを指定してほしいのだ")
	}
	return nil
}

func requireScene() error {
	if err := requireEpisode(); err != nil {
		return err
	}
	if opts.SceneID == "" {
		return fmt.Errorf("--scene でシーンIDを指定してほしいのだ")
	}
	return nil
}

// printJSON は結果を標準出力に整形して書き出すのだ。
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addAppFlags(rootCmd)
	rootCmd.AddCommand(
		bibleCmd,
		listCmd,
		premiseCmd,
		settingsCmd,
		refreshCmd,
		draftsCmd,
		contextCmd,
		scenesCmd,
		imagesCmd,
		veoCmd,
		characterCmd,
		importCmd,
		exportCmd,
		csvCmd,
		publishCmd,
		serveCmd,
	)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
