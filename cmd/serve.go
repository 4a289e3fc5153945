package cmd

import (
	"github.com/shouni/go-series-kit/internal/server"

	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd は、パイプラインの操作を HTTP と WebSocket で公開するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "REST API と WebSocket のサーバーを起動するのだ。",
	Long: `すべての生成操作を REST API として公開し、/ws でプロジェクト一覧の更新を配信するのだ。
API キーが無くても起動できるけれど、生成系の操作は設定エラーになるのだよ。`,
	Annotations: offline(),
	RunE:        serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "待ち受けアドレス（既定は HTTP_ADDR）なのだ。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	addr := appCfg.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	return server.New(svc, addr).Run(cmd.Context())
}
