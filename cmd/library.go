package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shouni/go-series-kit/internal/pipeline"
	"github.com/shouni/go-series-kit/pkg/publisher"

	"github.com/spf13/cobra"
)

// importCmd は、エクスポートされた JSON をプロジェクトストアに取り込むのだ。
var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "エクスポートされた JSON を取り込むのだ。",
	Long: `全プロジェクトの配列か単一プロジェクトの JSON を取り込むのだ。
配列の場合は既存のIDと重複しないものだけを、単一の場合はIDが重複すると別名で取り込むのだよ。`,
	Args:        cobra.ExactArgs(1),
	Annotations: offline(),
	RunE:        importCommand,
}

var exportCharacters bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "プロジェクトを JSON に書き出すのだ。",
	Long: `--project を省略すると全プロジェクトを、指定するとそのプロジェクトだけを書き出すのだ。
--characters を付けるとキャラクター一覧だけを書き出すのだよ。`,
	Annotations: offline(),
	RunE:        exportCommand,
}

var csvCmd = &cobra.Command{
	Use:         "csv",
	Short:       "エピソードのシーン一覧を CSV に書き出すのだ。",
	Annotations: offline(),
	RunE:        csvCommand,
}

var publishCmd = &cobra.Command{
	Use:         "publish",
	Short:       "エピソードの CSV・フレーム画像・絵コンテを出力ディレクトリに書き出すのだ。",
	Annotations: offline(),
	RunE:        publishCommand,
}

func init() {
	exportCmd.Flags().BoolVar(&exportCharacters, "characters", false, "キャラクター一覧だけを書き出すのだ。")
}

func importCommand(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("取り込むファイルの読み込みに失敗したのだ: %w", err)
	}

	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	result, err := svc.Import(cmd.Context(), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d 件のプロジェクトを取り込んだのだ（スキップ %d 件）\n", result.Added, result.Skipped)
	return nil
}

func exportCommand(cmd *cobra.Command, args []string) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	now := time.Now()

	if opts.ProjectID == "" {
		if exportCharacters {
			return fmt.Errorf("--characters には --project が必要なのだ")
		}
		return writeExport(cmd, svc, publisher.LibraryFileName(now), func(w io.Writer) error {
			return svc.ExportLibrary(ctx, w)
		})
	}

	p, err := svc.GetProject(ctx, opts.ProjectID)
	if err != nil {
		return err
	}
	if exportCharacters {
		return writeExport(cmd, svc, publisher.CharactersFileName(p), func(w io.Writer) error {
			return svc.ExportCharacters(ctx, p.ID, w)
		})
	}
	return writeExport(cmd, svc, publisher.ProjectFileName(p, now), func(w io.Writer) error {
		return svc.ExportProject(ctx, p.ID, w)
	})
}

func csvCommand(cmd *cobra.Command, args []string) error {
	if err := requireEpisode(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	p, err := svc.GetProject(ctx, opts.ProjectID)
	if err != nil {
		return err
	}
	ep := p.FindEpisode(opts.EpisodeID)
	if ep == nil {
		return fmt.Errorf("エピソードが見つからないのだ: %s", opts.EpisodeID)
	}
	return writeExport(cmd, svc, publisher.EpisodeCSVFileName(p, *ep), func(w io.Writer) error {
		return svc.ExportCSV(ctx, p.ID, ep.ID, w)
	})
}

// writeExport は --output-dir があればそこへファイルとして、無ければ標準出力へ書き出すのだ。
func writeExport(cmd *cobra.Command, svc *pipeline.Service, fileName string, write func(io.Writer) error) error {
	if opts.OutputDir == "" {
		return write(cmd.OutOrStdout())
	}

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	path, err := svc.SaveAsset(cmd.Context(), opts.OutputDir, fileName, &buf)
	if err != nil {
		return err
	}
	slog.Info("書き出しが完了したのだ！", "path", path)
	return nil
}

func publishCommand(cmd *cobra.Command, args []string) error {
	if err := requireEpisode(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	result, err := svc.PublishEpisode(cmd.Context(), opts.ProjectID, opts.EpisodeID, opts.OutputDir)
	if err != nil {
		return fmt.Errorf("エピソードの書き出しに失敗したのだ: %w", err)
	}
	slog.Info("エピソードの書き出しが完了したのだ！",
		"csv", result.CSVPath,
		"storyboard", result.StoryboardPath,
		"images", len(result.ImagePaths),
	)
	return nil
}
