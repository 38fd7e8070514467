// init.go 对应的是 init 子命令。
// 一般仅在项目初始化时使用，生成配置文件、计划模板，以及给 AI 助手阅读的说明。
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/operation"
)

var (
	initCmd *cobra.Command
)

func init() {
	// init
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "初始化项目。",
		Long:  `生成 .issue-sync.yaml 配置文件以及计划模板，已存在的文件不会被覆盖。`,
		Run: func(cmd *cobra.Command, args []string) {
			conf := loadAndInit(cmd)
			defer global.Sync()

			file := c
			if file == "" {
				file = ".issue-sync.yaml"
			}
			created, err := operation.Init(fs, conf, file)
			if err != nil {
				exit(err)
			}
			for _, f := range created {
				fmt.Printf("created %s\n", f)
			}
			if len(created) == 0 {
				fmt.Println("nothing to do, all files exist")
			}
		},
	}

	// 添加至 root 节点
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("plan-dir", ".github/issue-sync/plans", "计划文件目录")
}
