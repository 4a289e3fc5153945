package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/generator"

	"github.com/spf13/cobra"
)

var imagesFlags struct {
	characters bool
	character  string
	frame      string
	upload     string
}

// imagesCmd は、キャラクターのポートレートとシーンのフレーム画像を生成するのだ。
var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "ポートレートやシーンのフレーム画像を生成するのだ。",
	Long: `--characters でプロジェクトのポートレートを、--episode でエピソードの全フレームを、
未生成のものだけ順番に生成するのだ。--character や --scene --frame を指定すると1枚だけ作り直すのだよ。
--upload を付けると生成せずにローカルの画像ファイルを設定するのだ。`,
	RunE: imagesCommand,
}

func init() {
	imagesCmd.Flags().BoolVar(&imagesFlags.characters, "characters", false, "画像のないキャラクターのポートレートを生成するのだ。")
	imagesCmd.Flags().StringVar(&imagesFlags.character, "character", "", "ポートレートを作り直すキャラクターのIDなのだ。")
	imagesCmd.Flags().StringVar(&imagesFlags.frame, "frame", string(domain.FrameStart), "作り直すフレーム（start か end）なのだ。")
	imagesCmd.Flags().StringVar(&imagesFlags.upload, "upload", "", "生成せずに設定するローカルの画像ファイルなのだ。")
}

func imagesCommand(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	frame := domain.Frame(imagesFlags.frame)

	switch {
	case imagesFlags.character != "" && imagesFlags.upload != "":
		_, err := svc.UploadCharacterImage(ctx, opts.ProjectID, imagesFlags.character, imagesFlags.upload)
		return err
	case imagesFlags.character != "":
		_, err := svc.RegenerateCharacterImage(ctx, opts.ProjectID, imagesFlags.character)
		return err
	case imagesFlags.characters:
		report, err := svc.GenerateCharacterImages(ctx, opts.ProjectID)
		logReport(report)
		return err
	case opts.SceneID != "" && imagesFlags.upload != "":
		if err := requireEpisode(); err != nil {
			return err
		}
		_, err := svc.UploadSceneImage(ctx, opts.ProjectID, opts.EpisodeID, opts.SceneID, frame, imagesFlags.upload)
		return err
	case opts.SceneID != "":
		if err := requireEpisode(); err != nil {
			return err
		}
		_, err := svc.RegenerateSceneImage(ctx, opts.ProjectID, opts.EpisodeID, opts.SceneID, frame)
		return err
	case opts.EpisodeID != "":
		report, err := svc.GenerateSceneImages(ctx, opts.ProjectID, opts.EpisodeID)
		logReport(report)
		return err
	default:
		return fmt.Errorf("--characters・--character・--episode のいずれかを指定してほしいのだ")
	}
}

func logReport(report generator.BatchReport) {
	slog.Info("画像の生成が完了したのだ！",
		"generated", report.Generated,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"aborted", report.Aborted,
	)
}
