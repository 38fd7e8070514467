package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// 获取 issue 数据的方式
const (
	// 通过 gh 命令行，使用 gh 自身保存的认证信息
	BackendGh = "gh"
	// 通过 GitHub REST API，需要 token
	BackendAPI = "api"
)

// 图片命名方式
const (
	// issue-<number>-<位置>.<ext>，位置从 1 开始
	NamingPosition = "position"
	// issue-<number>-<URL hash>.<ext>，与位置无关
	NamingURL = "url"
)

// Config 是一次运行的完整配置
// 在进程启动时构造一次，之后以指针的形式传递给各个组件，不再有全局配置对象。
type Config struct {
	// 完整的仓库名字，即 组织名+仓库名。如：owner/repo
	Repository string `mapstructure:"repository" yaml:"repository"`

	// gh 或 api，默认为 gh
	Backend string `mapstructure:"backend" yaml:"backend"`
	// GitHub Token，支持通过命令行参数或者环境变量指定
	// backend 为 gh 时可以为空，此时使用 gh auth token
	Token string `mapstructure:"token" yaml:"-"`
	// gh 可执行文件路径
	GhPath string `mapstructure:"gh_path" yaml:"gh_path"`

	// 输出目录，默认为 issues
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	// 图片目录，位于 OutputDir 下，默认为 images
	ImagesSubdir string `mapstructure:"images_subdir" yaml:"images_subdir"`
	// 索引文件，位于 OutputDir 下，默认为 README.md
	IndexFile string `mapstructure:"index_file" yaml:"index_file"`

	// 是否同步已关闭的 issue，默认为 true
	// 为 false 时只获取 open 的 issue，并移除已经不在列表中的 issue 文件
	SyncClosed bool `mapstructure:"sync_closed" yaml:"sync_closed"`
	// 最多获取的 issue 数量
	Limit int `mapstructure:"limit" yaml:"limit"`

	// 图片相关
	ForceImages  bool          `mapstructure:"force_images" yaml:"force_images"`
	ImageRetries int           `mapstructure:"image_retries" yaml:"image_retries"`
	ImageBackoff time.Duration `mapstructure:"image_backoff" yaml:"image_backoff"`
	ImageTimeout time.Duration `mapstructure:"image_timeout" yaml:"image_timeout"`
	ImageHosts   []string      `mapstructure:"image_hosts" yaml:"image_hosts"`
	ImageNaming  string        `mapstructure:"image_naming" yaml:"image_naming"`

	// 同步前，将本地文件中的 state 推送至 GitHub
	PushState bool `mapstructure:"push_state" yaml:"push_state"`
	// 只输出将要进行的操作，不写入任何文件，也不修改远程 issue
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
	// 仅同步指定的 issue，0 表示同步全部
	Issue int `mapstructure:"issue" yaml:"issue"`

	// 日志
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// 计划文件目录，plan 子命令使用
	PlanDir string `mapstructure:"plan_dir" yaml:"plan_dir"`

	// serve 子命令使用
	Port          string `mapstructure:"port" yaml:"port"`
	// 每天执行一次完整同步的时刻，格式 15:04，为空表示不定时同步
	SyncAt        string `mapstructure:"sync_at" yaml:"sync_at"`
	WebhookSecret string `mapstructure:"webhook_secret" yaml:"-"`
}

// Owner 组织名
func (c *Config) Owner() string {
	return strings.SplitN(c.Repository, "/", 2)[0]
}

// Name 仓库名
func (c *Config) Name() string {
	parts := strings.SplitN(c.Repository, "/", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// ImagesDir 图片目录的完整路径
func (c *Config) ImagesDir() string {
	return filepath.Join(c.OutputDir, c.ImagesSubdir)
}

// ImagesRelDir 图片目录相对于 issue 文件的路径，用于改写图片链接
func (c *Config) ImagesRelDir() string {
	return filepath.ToSlash(c.ImagesSubdir)
}

// State 获取 issue 列表时使用的状态过滤条件
func (c *Config) State() string {
	if c.SyncClosed {
		return "all"
	}
	return "open"
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	parts := strings.Split(c.Repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid repository %q, use owner/repo format", c.Repository)
	}
	switch c.Backend {
	case BackendGh:
	case BackendAPI:
		if c.Token == "" {
			return fmt.Errorf("backend %q requires a token, set GITHUB_TOKEN or --token", BackendAPI)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.ImageNaming {
	case NamingPosition, NamingURL:
	default:
		return fmt.Errorf("unknown image naming %q", c.ImageNaming)
	}
	if c.ImageRetries < 1 {
		return fmt.Errorf("image_retries must be at least 1, got %d", c.ImageRetries)
	}
	if c.Limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", c.Limit)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir can not be empty")
	}
	if c.SyncAt != "" {
		if _, err := time.Parse("15:04", c.SyncAt); err != nil {
			return fmt.Errorf("invalid sync_at %q, use 15:04 format", c.SyncAt)
		}
	}
	if c.Issue < 0 {
		return fmt.Errorf("invalid issue number %d", c.Issue)
	}
	return nil
}
