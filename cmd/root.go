package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jt196/github-issue-sync/client"
	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/images"
	"github.com/jt196/github-issue-sync/operation"
	"github.com/jt196/github-issue-sync/source"
	"github.com/jt196/github-issue-sync/tools"
)

var (
	// 指定配置文件路径，默认为 ./.issue-sync.yaml
	c string

	// .env 文件路径
	envFile string

	// 所有命令共用的文件系统
	fs = afero.NewOsFs()
)

// 命令行参数与配置项的对应关系
// token 支持通过命令行参数或者环境变量指定，不会写入配置文件
var flagKeys = map[string]string{
	"repo":         "repository",
	"token":        "token",
	"backend":      "backend",
	"gh":           "gh_path",
	"output-dir":   "output_dir",
	"images-dir":   "images_subdir",
	"index-file":   "index_file",
	"sync-closed":  "sync_closed",
	"limit":        "limit",
	"force-images": "force_images",
	"retries":      "image_retries",
	"naming":       "image_naming",
	"push-state":   "push_state",
	"dry-run":      "dry_run",
	"issue":        "issue",
	"verbose":      "verbose",
	"log-level":    "log_level",
	"plan-dir":     "plan_dir",
	"port":         "port",
	"sync-at":      "sync_at",
}

var rootCmd = &cobra.Command{
	Use:   "issue-sync",
	Short: "将 GitHub issue 同步为本地 markdown 文件",
	Long: `issue-sync 将 GitHub 仓库的 issue、评论、图片以及子 issue 关系镜像为本地 markdown 文件，
并生成一个索引文件，供在仓库内工作的 AI 编程助手阅读。`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Usage()
	},
}

func init() {
	// 所有子命令通用的参数
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c, "config", "c", "", "指定配置文件路径")
	flags.StringVar(&envFile, "env-file", ".env", ".env 文件路径")
	flags.StringP("repo", "r", "", "仓库名，owner/repo，默认从 git remote 中解析")
	flags.StringP("token", "t", "", "GitHub Person Token.")
	flags.String("backend", config.BackendGh, "获取 issue 的方式：gh 或 api")
	flags.String("gh", "gh", "gh 命令行路径")
	flags.StringP("output-dir", "o", "issues", "输出目录")
	flags.Bool("dry-run", false, "只输出将要进行的操作，不做任何修改")
	flags.BoolP("verbose", "v", false, "输出 debug 日志")
	flags.String("log-level", "dev", "日志配置：dev 或 pro")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// exit 输出错误并退出
func exit(err error) {
	global.Sugar.Errorw("issue-sync",
		"status", "failed",
		"err", err.Error())
	global.Sync()
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// 通用的加载配置文件、初始化 log 组件函数
// 优先级：命令行参数 > 环境变量 > 配置文件 > .env 文件 > 默认值
func loadAndInit(cmd *cobra.Command) *config.Config {
	if err := config.LoadDotEnv(fs, envFile); err != nil {
		fmt.Printf("unable to load %s, %v\n", envFile, err)
		os.Exit(1)
	}

	v := viper.New()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		fmt.Printf("unable to bind flags, %v\n", bindErr)
		os.Exit(1)
	}

	conf, err := config.Load(v, c)
	if err != nil {
		fmt.Printf("unable to load config file, %v\n", err)
		os.Exit(1)
	}

	// 没有指定仓库时，尝试从 git remote 中解析
	if conf.Repository == "" {
		conf.Repository = detectRepo()
	}

	if err := global.Init(conf.LogLevel, conf.Verbose); err != nil {
		fmt.Printf("unable to init logger, %v\n", err)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		exit(err)
	}
	global.Sugar.Debugw("load config",
		"repository", conf.Repository,
		"backend", conf.Backend,
		"output", conf.OutputDir)

	// 返回配置对象
	return conf
}

// detectRepo 读取 remote.origin.url，无法解析时返回空字符串
func detectRepo() string {
	out, err := exec.Command("git", "config", "--get", "remote.origin.url").Output()
	if err != nil {
		return ""
	}
	return tools.Parse.Repo(strings.TrimSpace(string(out)))
}

// newSource 根据配置创建 Source
func newSource(ctx context.Context, conf *config.Config) source.Source {
	src, err := source.New(ctx, conf)
	if err != nil {
		exit(err)
	}
	return src
}

// newSyncer 创建 Syncer，图片下载使用 Source 提供的 token
func newSyncer(ctx context.Context, conf *config.Config) *operation.Syncer {
	src := newSource(ctx, conf)
	ts := client.LazyTokenSource(func() (string, error) {
		return src.Token(ctx)
	})
	dl := images.NewHTTPDownloader(client.HTTP(conf.ImageTimeout), ts)
	return operation.NewSyncer(conf, src, fs, dl)
}
