// serve.go 对应 serve 子命令，表示启动 webhook 服务。
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/server"
)

var (
	serveCmd *cobra.Command
)

func init() {
	// serve
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "开始运行。",
		Long:  `启动 HTTP 服务，监听 GitHub 的 Webhook 事件，issue 有变动时自动同步。`,
		Run: func(cmd *cobra.Command, args []string) {
			conf := loadAndInit(cmd)
			defer global.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(conf, newSyncer(ctx, conf))
			if err != nil {
				exit(err)
			}
			if err := srv.Start(ctx); err != nil {
				exit(err)
			}
		},
	}

	// 添加至 root 节点
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("port", ":8080", "监听地址")
	flags.String("sync-at", "", "每天执行完整同步的时刻，例如 03:00")
	flags.Bool("sync-closed", true, "同步已关闭的 issue")
	flags.String("naming", "position", "图片命名方式：position 或 url")
}
