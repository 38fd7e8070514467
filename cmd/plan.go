// plan.go 对应 plan 子命令
// 将 <plan_dir>/<number>.md 发布为对应 issue 的评论，已发布过则更新该评论。
package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/operation"
)

var (
	planCmd *cobra.Command
)

func init() {
	// plan
	planCmd = &cobra.Command{
		Use:   "plan <number>",
		Short: "发布计划评论。",
		Long:  `将计划文件发布为 issue 的评论，评论中带有标记，再次发布时会更新该评论而不是新建。`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			number, err := issueNumber(args[0])
			if err != nil {
				exit(err)
			}
			conf := loadAndInit(cmd)
			defer global.Sync()

			ctx := context.Background()
			action, err := operation.PublishPlan(ctx, fs, newSource(ctx, conf), conf, number)
			if err != nil {
				exit(err)
			}
			fmt.Printf("plan for #%d: %s\n", number, action)
		},
	}

	// 添加至 root 节点
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().String("plan-dir", ".github/issue-sync/plans", "计划文件目录")
}

// issueNumber 解析命令行中的 issue number，必须为正整数
func issueNumber(arg string) (int, error) {
	number, err := strconv.Atoi(arg)
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("invalid issue number %q", arg)
	}
	return number, nil
}
