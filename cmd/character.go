package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var characterFlags struct {
	name   string
	visual string
}

// characterCmd は、キャラクターの追加と外見プロンプトからの設定の推論を行うのだ。
var characterCmd = &cobra.Command{
	Use:   "character [id]",
	Short: "キャラクターを追加、または外見プロンプトから設定を推論するのだ。",
	Long: `ID を省略すると --name で空のキャラクターを追加するのだ。--episode を付けるとそのエピソードのキャストにも加えるのだよ。
ID と --visual を指定すると、外見プロンプトから年齢や性格などを推論して保存するのだ。`,
	Args: cobra.MaximumNArgs(1),
	RunE: characterCommand,
}

func init() {
	characterCmd.Flags().StringVar(&characterFlags.name, "name", "", "追加するキャラクターの名前なのだ。")
	characterCmd.Flags().StringVar(&characterFlags.visual, "visual", "", "設定を推論する元になる外見プロンプトなのだ。")
}

func characterCommand(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if len(args) == 0 {
		c, err := svc.AddCharacter(ctx, opts.ProjectID, opts.EpisodeID, characterFlags.name)
		if err != nil {
			return err
		}
		return printJSON(cmd, c)
	}
	if characterFlags.visual == "" {
		return fmt.Errorf("--visual で外見プロンプトを指定してほしいのだ")
	}
	c, err := svc.UpdateCharacterInfo(ctx, opts.ProjectID, args[0], characterFlags.visual)
	if err != nil {
		return err
	}
	return printJSON(cmd, c)
}
