package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-series-kit/internal/config"
	"github.com/shouni/go-series-kit/pkg/domain"

	"github.com/spf13/cobra"
)

var bibleFlags struct {
	idea     string
	aspect   string
	duration string
	language string
	mood     string
	style    string
	noImages bool
}

// bibleCmd は、アイデアからシリーズのバイブルを生成して新しいプロジェクトを作るのだ。
var bibleCmd = &cobra.Command{
	Use:   "bible",
	Short: "アイデアからシリーズのバイブルを生成するのだ。",
	Long: `アイデア（またはプリセット YAML）から、シリーズ名・前提・キャラクター一覧を生成して
新しいプロジェクトとして保存するのだ。続けてキャラクターのポートレートも生成するのだよ。`,
	RunE: bibleCommand,
}

var listCmd = &cobra.Command{
	Use:         "list",
	Short:       "保存済みのプロジェクトを一覧表示するのだ。",
	Annotations: offline(),
	RunE:        listCommand,
}

var premiseCmd = &cobra.Command{
	Use:   "premise",
	Short: "シリーズの前提を演出設定に合わせて書き直すのだ。",
	RunE:  premiseCommand,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "シリーズの演出設定を変更するのだ。",
	Long: `縦横比・尺・言語・ムード・スタイルを変更するのだ。
スタイルかムードが変わった場合は --refresh でキャラクターの外見プロンプトも書き直すのだよ。`,
	Annotations: offline(),
	RunE:        settingsCommand,
}

var settingsRefresh bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "キャラクターの外見プロンプトを現在のスタイルに合わせて書き直すのだ。",
	RunE:  refreshCommand,
}

func init() {
	bibleCmd.Flags().StringVar(&bibleFlags.idea, "idea", "", "シリーズのアイデアなのだ。")
	bibleCmd.Flags().StringVar(&opts.Preset, "preset", "", "アイデアと演出設定をまとめた YAML プリセットなのだ。")
	bibleCmd.Flags().BoolVar(&bibleFlags.noImages, "no-images", false, "ポートレートの自動生成を行わないのだ。")
	addScriptFlags(bibleCmd)

	addScriptFlags(settingsCmd)
	settingsCmd.Flags().BoolVar(&settingsRefresh, "refresh", false, "スタイルかムードが変わったらキャラクターの外見プロンプトを書き直すのだ。")
}

func addScriptFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&bibleFlags.aspect, "aspect", "", "縦横比（16:9, 9:16, 1:1, 4:3, 21:9）なのだ。")
	cmd.Flags().StringVar(&bibleFlags.duration, "duration", "", "1話の尺（例: 60s, 2m）なのだ。")
	cmd.Flags().StringVar(&bibleFlags.language, "language", "", "台本の言語なのだ。")
	cmd.Flags().StringVar(&bibleFlags.mood, "mood", "", "ムードなのだ。")
	cmd.Flags().StringVar(&bibleFlags.style, "style", "", "画風なのだ。")
}

// scriptConfigFrom は base にフラグで指定された項目だけを上書きするのだ。
func scriptConfigFrom(base domain.ScriptConfig) domain.ScriptConfig {
	if bibleFlags.aspect != "" {
		base.AspectRatio = domain.AspectRatio(bibleFlags.aspect)
	}
	if bibleFlags.duration != "" {
		base.Duration = bibleFlags.duration
	}
	if bibleFlags.language != "" {
		base.Language = bibleFlags.language
	}
	if bibleFlags.mood != "" {
		base.Mood = bibleFlags.mood
	}
	if bibleFlags.style != "" {
		base.Style = bibleFlags.style
	}
	return base
}

func bibleCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	idea := strings.TrimSpace(bibleFlags.idea)
	sc := domain.DefaultScriptConfig()
	ac := domain.AIConfig{TextModel: appCfg.Kit.TextModel, ImageModel: appCfg.Kit.ImageModel}
	if opts.Preset != "" {
		preset, err := config.LoadPreset(opts.Preset)
		if err != nil {
			return err
		}
		if idea == "" {
			idea = preset.Idea
		}
		sc = preset.Script
		if opts.TextModel == "" && opts.ImageModel == "" {
			ac = preset.AI
		}
	}
	if idea == "" {
		return fmt.Errorf("--idea または --preset でアイデアを指定してほしいのだ")
	}
	sc = scriptConfigFrom(sc)
	if !sc.AspectRatio.Valid() {
		return fmt.Errorf("未対応の縦横比なのだ: %s", sc.AspectRatio)
	}

	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	slog.Info("バイブルを生成するのだ！", "style", sc.Style, "mood", sc.Mood, "text_model", ac.TextModel)
	if bibleFlags.noImages {
		p, err := svc.CreateBible(ctx, idea, sc, ac)
		if err != nil {
			return err
		}
		return printJSON(cmd, p)
	}

	p, report, err := svc.CreateProject(ctx, idea, sc, ac)
	if p.ID == "" {
		return err
	}
	if err != nil {
		slog.Warn("プロジェクトは保存したけれど、ポートレートの生成に失敗したのだ", "error", err)
	}
	slog.Info("バイブルの生成が完了したのだ！",
		"project", p.ID,
		"characters", len(p.Characters),
		"images", report.Generated,
	)
	return printJSON(cmd, p)
}

func listCommand(cmd *cobra.Command, args []string) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	projects, err := svc.ListProjects(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%d characters\t%d episodes\n", p.ID, p.Name, len(p.Characters), len(p.Episodes))
		for _, ep := range p.Episodes {
			fmt.Fprintf(w, "  %s\t%s\t%d scenes\n", ep.ID, ep.Title, len(ep.Scenes))
		}
	}
	return nil
}

func premiseCommand(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	premise, err := svc.RegeneratePremise(cmd.Context(), opts.ProjectID)
	if err != nil {
		return fmt.Errorf("前提の書き直しに失敗したのだ: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), premise)
	return nil
}

func settingsCommand(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
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
	p, err = svc.SaveSettings(ctx, opts.ProjectID, scriptConfigFrom(p.Config), settingsRefresh)
	if p.ID == "" {
		return err
	}
	if err != nil {
		slog.Warn("設定は保存したけれど、外見プロンプトの更新に失敗したのだ", "error", err)
	}
	return printJSON(cmd, p.Config)
}

func refreshCommand(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	p, err := svc.RefreshCharacters(cmd.Context(), opts.ProjectID)
	if err != nil {
		return fmt.Errorf("外見プロンプトの書き直しに失敗したのだ: %w", err)
	}
	return printJSON(cmd, p.Characters)
}
