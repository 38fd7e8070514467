// operation 包实现了各个子命令对应的操作
// sync: 同步 issue 至本地
// plan: 将计划文件发布为 issue 评论
// init: 初始化项目中的配置文件以及计划模板
package operation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/global"
)

// 计划模板
const planTemplate = `# Plan for #{number}

## Goal

## Approach

## Steps

1.

## Testing
`

// 给 AI 助手阅读的说明
const agentsGuide = `# Working with synced issues

Issues from GitHub are mirrored as markdown under the output directory.

- Read ` + "`{output}/{number}.md`" + ` before working on an issue.
- Screenshots referenced by issues live in ` + "`{images}/`" + `.
- Do not edit the mirrored files, they are regenerated by ` + "`issue-sync sync`" + `.
- To change an issue state locally, edit the ` + "`state`" + ` field of the metadata footer and run ` + "`issue-sync push`" + `.
- Write plans to ` + "`{plans}/{number}.md`" + ` and publish them with ` + "`issue-sync plan {number}`" + `.
`

// Init 初始化项目，已存在的文件不会被覆盖
// 返回新创建的文件
func Init(fs afero.Fs, conf *config.Config, configFile string) ([]string, error) {
	created := make([]string, 0)
	write := func(file string, data []byte) error {
		ok, err := afero.Exists(fs, file)
		if err != nil {
			return err
		}
		if ok {
			global.Sugar.Debugw("init file",
				"file", file,
				"status", "exists")
			return nil
		}
		if conf.DryRun {
			global.Sugar.Infow("init file",
				"dry run", true,
				"file", file)
			created = append(created, file)
			return nil
		}
		if err := fs.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return err
		}
		if err := afero.WriteFile(fs, file, data, 0644); err != nil {
			return err
		}
		global.Sugar.Infow("init file",
			"file", file)
		created = append(created, file)
		return nil
	}

	// 配置文件，不包含 token 等敏感信息
	data, err := yaml.Marshal(conf)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	if err := write(configFile, data); err != nil {
		return created, err
	}

	if err := write(filepath.Join(conf.PlanDir, "plan-template.md"), []byte(planTemplate)); err != nil {
		return created, err
	}

	guide := agentsGuide
	for k, v := range map[string]string{
		"{output}": filepath.ToSlash(conf.OutputDir),
		"{images}": filepath.ToSlash(conf.ImagesDir()),
		"{plans}":  filepath.ToSlash(conf.PlanDir),
	} {
		guide = strings.ReplaceAll(guide, k, v)
	}
	if err := write(filepath.Join(filepath.Dir(conf.PlanDir), "AGENTS.md"), []byte(guide)); err != nil {
		return created, err
	}
	return created, nil
}
