// push.go 对应 push 子命令
// 效果是将本地 issue 文件中记录的 state 推送至 GitHub。
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/pusher"
	"github.com/jt196/github-issue-sync/store"
)

var (
	pushCmd *cobra.Command
)

func init() {
	// push
	pushCmd = &cobra.Command{
		Use:   "push",
		Short: "推送 issue 状态。",
		Long:  `读取本地 issue 文件末尾的元数据，将其中的 state 设置到 GitHub 上对应的 issue。`,
		Run: func(cmd *cobra.Command, args []string) {
			conf := loadAndInit(cmd)
			defer global.Sync()

			ctx := context.Background()
			s := store.New(fs, conf.OutputDir, conf.IndexFile, conf.DryRun)
			stats, err := pusher.New(s, newSource(ctx, conf), conf.DryRun).Push(ctx)
			if err != nil {
				exit(err)
			}

			_, _ = color.New(color.FgCyan, color.Bold).Println("Push Complete")
			_, _ = color.New(color.FgGreen).Printf("Pushed:  %d\n", stats.Pushed)
			fmt.Printf("Skipped: %d\n", stats.Skipped)
			if stats.Failed > 0 {
				_, _ = color.New(color.FgRed, color.Bold).Printf("Failed:  %d\n", stats.Failed)
				global.Sync()
				os.Exit(1)
			}
		},
	}

	// 添加至 root 节点
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().String("index-file", "README.md", "索引文件名")
}
