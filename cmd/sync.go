// sync.go 对应 sync 子命令，同步 issue 至本地。
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/operation"
)

var (
	syncCmd *cobra.Command
)

func init() {
	// sync
	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "同步 issue。",
		Long:  `获取仓库的 issue，下载图片，生成 issue 文件以及索引文件。`,
		Run: func(cmd *cobra.Command, args []string) {
			conf := loadAndInit(cmd)
			defer global.Sync()

			ctx := context.Background()
			stats, err := newSyncer(ctx, conf).Sync(ctx)
			if err != nil {
				exit(err)
			}
			summary(stats, conf.DryRun, conf.OutputDir)
			if len(stats.Errors) > 0 {
				global.Sync()
				os.Exit(1)
			}
		},
	}

	// 添加至 root 节点
	rootCmd.AddCommand(syncCmd)

	// 解析参数
	flags := syncCmd.Flags()
	flags.Int("issue", 0, "仅同步指定的 issue")
	flags.Bool("sync-closed", true, "同步已关闭的 issue，为 false 时会移除已关闭 issue 的文件")
	flags.Int("limit", 1000, "最多获取的 issue 数量")
	flags.Bool("force-images", false, "重新下载所有图片")
	flags.Int("retries", 3, "图片下载的最大尝试次数")
	flags.String("naming", "position", "图片命名方式：position 或 url")
	flags.String("images-dir", "images", "图片目录，位于输出目录下")
	flags.String("index-file", "README.md", "索引文件名")
	flags.Bool("push-state", false, "同步前，将本地文件中的 state 推送至 GitHub")
}

// summary 输出同步结果
func summary(stats operation.Stats, dryRun bool, output string) {
	title := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed, color.Bold)

	fmt.Println()
	if dryRun {
		_, _ = warn.Println("DRY RUN - no files were written")
	}
	_, _ = title.Println("Sync Complete")
	fmt.Printf("Total issues:      %d\n", stats.Total)
	_, _ = ok.Printf("Files written:     %d\n", stats.Written)
	fmt.Printf("Files unchanged:   %d\n", stats.Unchanged)
	if stats.Removed > 0 {
		_, _ = warn.Printf("Files removed:     %d\n", stats.Removed)
	}
	fmt.Printf("Images downloaded: %d\n", stats.Images.Downloaded)
	if stats.Images.Failed > 0 {
		_, _ = warn.Printf("Images failed:     %d\n", stats.Images.Failed)
	}
	if stats.Push != nil {
		fmt.Printf("States pushed:     %d\n", stats.Push.Pushed)
	}
	if len(stats.Errors) > 0 {
		_, _ = bad.Printf("Errors:            %d\n", len(stats.Errors))
		for _, e := range stats.Errors {
			_, _ = bad.Printf("  - %s\n", e)
		}
	}
	fmt.Printf("Output: %s\n", output)
}
