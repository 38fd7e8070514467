package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/jt196/github-issue-sync/global"
)

var (
	info *cobra.Command
)

func init() {
	// info
	info = &cobra.Command{
		Use:   "info",
		Short: "输出当前配置。",
		Long:  `以 YAML 格式输出合并了命令行参数、环境变量、配置文件之后的配置，不包含 token。`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadAndInit(cmd)
			defer global.Sync()

			data, err := yaml.Marshal(cfg)
			if err != nil {
				exit(err)
			}
			fmt.Print(string(data))
			global.Sugar.Debugw("load config",
				"token set", cfg.Token != "")
		},
	}

	// 添加至 root 节点
	rootCmd.AddCommand(info)
}
