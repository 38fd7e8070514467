// source 包负责从 GitHub 获取 issue 数据，以及修改远程 issue。
// 支持两种方式：gh 命令行（默认），以及 GitHub REST API。
package source

import (
	"context"
	"fmt"

	"github.com/jt196/github-issue-sync/client"
	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/model"
)

// Source 外部的 issue 服务
type Source interface {
	// 获取 issue 列表，state 为 open 或 all
	ListIssues(ctx context.Context, state string, limit int) ([]model.Issue, error)
	// 获取单个 issue
	GetIssue(ctx context.Context, number int) (model.Issue, error)
	// 获取子 issue 汇总，没有时返回 nil
	SubIssuesSummary(ctx context.Context, number int) (*model.SubIssuesSummary, error)
	// 获取直接子 issue
	SubIssues(ctx context.Context, number int) ([]model.TrackedIssue, error)
	// 修改 issue 状态，state 为 OPEN 或 CLOSED
	SetState(ctx context.Context, number int, state string) error

	// 评论相关，用于发布计划
	ListComments(ctx context.Context, number int) ([]model.RemoteComment, error)
	CreateComment(ctx context.Context, number int, body string) error
	UpdateComment(ctx context.Context, id int64, body string) error

	// 下载图片时使用的 token
	Token(ctx context.Context) (string, error)
}

// New 根据配置创建对应的 Source
func New(ctx context.Context, conf *config.Config) (Source, error) {
	switch conf.Backend {
	case config.BackendGh:
		return NewGh(ExecRunner{Path: conf.GhPath, Token: conf.Token}, conf.Repository), nil
	case config.BackendAPI:
		return NewREST(client.New(ctx, conf.Token), conf.Owner(), conf.Name(), conf.Token), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", conf.Backend)
	}
}
