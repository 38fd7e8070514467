package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// 环境变量与配置项的对应关系
var envs = map[string]string{
	"repository":     "GITHUB_REPO",
	"token":          "GITHUB_TOKEN",
	"backend":        "ISSUE_SYNC_BACKEND",
	"output_dir":     "OUTPUT_DIR",
	"images_subdir":  "IMAGES_SUBDIR",
	"sync_closed":    "SYNC_CLOSED",
	"image_retries":  "IMAGE_RETRIES",
	"log_level":      "LOG_LEVEL",
	"plan_dir":       "PLAN_DIR",
	"webhook_secret": "WEBHOOK_SECRET",
	"port":           "PORT",
}

// SetDefaults 设置默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendGh)
	v.SetDefault("gh_path", "gh")
	v.SetDefault("output_dir", "issues")
	v.SetDefault("images_subdir", "images")
	v.SetDefault("index_file", "README.md")
	v.SetDefault("sync_closed", true)
	v.SetDefault("limit", 1000)
	v.SetDefault("image_retries", 3)
	v.SetDefault("image_backoff", 2*time.Second)
	v.SetDefault("image_timeout", 30*time.Second)
	v.SetDefault("image_hosts", []string{"github.com", "githubusercontent.com"})
	v.SetDefault("image_naming", NamingPosition)
	v.SetDefault("log_level", "dev")
	v.SetDefault("plan_dir", ".github/issue-sync/plans")
	v.SetDefault("port", ":8080")
}

// Load 读取配置
// 优先级：命令行参数 > 环境变量 > 配置文件 > 默认值
// 命令行参数需要调用方提前通过 v.BindPFlag 绑定。
// file 为空时尝试读取 ./.issue-sync.yaml，不存在则忽略。
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	for key, env := range envs {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName(".issue-sync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	c.Repository = strings.TrimSpace(c.Repository)
	return c, nil
}

// LoadDotEnv 读取 .env 文件，并写入环境变量
// 已存在的环境变量不会被覆盖；文件不存在时不做任何操作。
func LoadDotEnv(fs afero.Fs, file string) error {
	exists, err := afero.Exists(fs, file)
	if err != nil || !exists {
		return err
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(file)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for _, key := range v.AllKeys() {
		env := strings.ToUpper(key)
		if _, ok := os.LookupEnv(env); ok {
			continue
		}
		if err := os.Setenv(env, v.GetString(key)); err != nil {
			return err
		}
	}
	return nil
}
