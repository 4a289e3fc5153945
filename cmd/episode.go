package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/runner"

	"github.com/spf13/cobra"
)

var draftsFlags struct {
	instruction string
	count       int
	cast        []string
	duration    string
	title       string
	empty       bool
}

// draftsCmd は、シリーズのバイブルからエピソードのドラフトを生成するのだ。
var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "エピソードのドラフト（タイトル・あらすじ・台本）を生成するのだ。",
	Long: `指示とキャストに従って、タイトル・あらすじ・タイムスタンプ付き台本からなる
エピソードのドラフトを生成するのだ。新しいドラフトは一覧の先頭に追加されるのだよ。
--empty を付けると生成せずに空のエピソードだけを追加するのだ。`,
	RunE: draftsCommand,
}

var contextFlags struct {
	instruction string
	cast        []string
	regenerate  bool
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "エピソードのストーリーを指示に従って書き直すのだ。",
	Long: `指示とキャストを変えてストーリーを書き直すのだ。既存のシーンは消えるのだよ。
--regenerate の場合はキャストとシーンを残したままドラフトだけを作り直すのだ。`,
	RunE: contextCommand,
}

var scenesFlags struct {
	count      int
	cast       []string
	strict     bool
	withImages bool
	edit       string
}

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "エピソードをシーンに分解するのだ。",
	Long: `台本をシーン（場所・アクション・カメラ、開始・終了フレームの画像プロンプト、
動画・音声プロンプト）に分解して保存するのだ。--edit を付けると既存のシーンを指示に従って書き直すのだよ。`,
	RunE: scenesCommand,
}

var veoCmd = &cobra.Command{
	Use:   "veo",
	Short: "シーンの Veo 用動画プロンプトを生成するのだ。",
	RunE:  veoCommand,
}

func init() {
	draftsCmd.Flags().StringVar(&draftsFlags.instruction, "instruction", "", "エピソードの方向性の指示なのだ。")
	draftsCmd.Flags().IntVarP(&draftsFlags.count, "count", "n", 1, "生成するドラフト数なのだ。")
	draftsCmd.Flags().StringSliceVar(&draftsFlags.cast, "cast", nil, "登場させるキャラクターのIDなのだ。")
	draftsCmd.Flags().StringVar(&draftsFlags.duration, "duration", "", "尺を上書きするのだ。")
	draftsCmd.Flags().BoolVar(&draftsFlags.empty, "empty", false, "空のエピソードを追加するのだ。")
	draftsCmd.Flags().StringVar(&draftsFlags.title, "title", "", "--empty のときのタイトルなのだ。")

	contextCmd.Flags().StringVar(&contextFlags.instruction, "instruction", "", "書き直しの指示なのだ。")
	contextCmd.Flags().StringSliceVar(&contextFlags.cast, "cast", nil, "新しいキャストのIDなのだ。")
	contextCmd.Flags().BoolVar(&contextFlags.regenerate, "regenerate", false, "ドラフトだけを作り直すのだ。")

	scenesCmd.Flags().IntVarP(&scenesFlags.count, "count", "n", 0, "シーン数（0 で台本と尺から推定）なのだ。")
	scenesCmd.Flags().StringSliceVar(&scenesFlags.cast, "cast", nil, "シーンに登場させるキャラクターのIDなのだ。")
	scenesCmd.Flags().BoolVar(&scenesFlags.strict, "strict", false, "キャラクターの外見に画像プロンプトを使うのだ（未指定なら STRICT_CONSISTENCY に従うのだ）。")
	scenesCmd.Flags().BoolVar(&scenesFlags.withImages, "images", false, "続けて全シーンのフレーム画像を生成するのだ。")
	scenesCmd.Flags().StringVar(&scenesFlags.edit, "edit", "", "既存のシーンを書き直す指示なのだ。")
}

func draftsCommand(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if draftsFlags.empty {
		ep, err := svc.AddEpisode(ctx, opts.ProjectID, draftsFlags.title)
		if err != nil {
			return err
		}
		return printJSON(cmd, ep)
	}

	slog.Info("ドラフトを生成するのだ！", "project", opts.ProjectID, "count", draftsFlags.count)
	drafts, err := svc.CreateDrafts(ctx, opts.ProjectID, runner.DraftRequest{
		Instruction: draftsFlags.instruction,
		Count:       draftsFlags.count,
		CastIDs:     draftsFlags.cast,
		Duration:    draftsFlags.duration,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd, drafts)
}

func contextCommand(cmd *cobra.Command, args []string) error {
	if err := requireEpisode(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if contextFlags.regenerate {
		ep, err := svc.RegenerateDraft(ctx, opts.ProjectID, opts.EpisodeID, contextFlags.instruction)
		if err != nil {
			return err
		}
		return printJSON(cmd, ep)
	}
	if contextFlags.instruction == "" && contextFlags.cast == nil {
		return fmt.Errorf("--instruction か --cast を指定してほしいのだ")
	}
	ep, err := svc.ChangeContext(ctx, opts.ProjectID, opts.EpisodeID, contextFlags.instruction, contextFlags.cast)
	if err != nil {
		return err
	}
	return printJSON(cmd, ep)
}

func scenesCommand(cmd *cobra.Command, args []string) error {
	if err := requireEpisode(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if scenesFlags.edit != "" {
		ep, err := svc.EditScenes(ctx, opts.ProjectID, opts.EpisodeID, scenesFlags.edit)
		if err != nil {
			return err
		}
		return printJSON(cmd, ep.Scenes)
	}

	ep, report, err := svc.GenerateScenes(ctx, opts.ProjectID, opts.EpisodeID, runner.SceneRequest{
		Count:   scenesFlags.count,
		CastIDs: scenesFlags.cast,
		Strict:  strictFlag(cmd),
	}, scenesFlags.withImages)
	if ep.ID == "" {
		return err
	}
	if err != nil {
		slog.Warn("シーンは保存したけれど、画像の生成に失敗したのだ", "error", err)
	}
	slog.Info("シーン分解が完了したのだ！",
		"scenes", len(ep.Scenes),
		"images", report.Generated,
		"failed", report.Failed,
	)
	return printJSON(cmd, ep.Scenes)
}

func veoCommand(cmd *cobra.Command, args []string) error {
	if err := requireScene(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	sc, err := svc.GenerateVeoPrompt(cmd.Context(), opts.ProjectID, opts.EpisodeID, opts.SceneID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sc.VeoPrompt.String())
	return nil
}

// strictFlag は --strict が指定された場合だけ値を返すのだ。未指定なら設定の既定値に任せるのだ。
func strictFlag(cmd *cobra.Command) *bool {
	if !cmd.Flags().Changed("strict") {
		return nil
	}
	strict := scenesFlags.strict
	return &strict
}
