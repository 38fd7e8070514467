package source

import (
	"context"
	"fmt"

	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/model"
	"github.com/jt196/github-issue-sync/tools"
)

// Fetcher 获取 issue，并补全子 issue 信息
// 子 issue 信息获取失败时只记录警告，issue 仍然正常同步
type Fetcher struct {
	src  Source
	conf *config.Config
}

// NewFetcher 创建 Fetcher
func NewFetcher(src Source, conf *config.Config) *Fetcher {
	return &Fetcher{src: src, conf: conf}
}

// FetchAll 获取全部 issue，列表获取失败时返回 error
func (f *Fetcher) FetchAll(ctx context.Context) ([]model.Issue, error) {
	issues, err := f.src.ListIssues(ctx, f.conf.State(), f.conf.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch issues from %s: %w", f.conf.Repository, err)
	}
	global.Sugar.Infow("fetch issues",
		"repository", f.conf.Repository,
		"state", f.conf.State(),
		"count", len(issues))

	for i := range issues {
		f.normalize(&issues[i])
		f.enrich(ctx, &issues[i])
	}
	return issues, nil
}

// FetchOne 获取单个 issue
func (f *Fetcher) FetchOne(ctx context.Context, number int) (model.Issue, error) {
	issue, err := f.src.GetIssue(ctx, number)
	if err != nil {
		return model.Issue{}, fmt.Errorf("fetch issue #%d: %w", number, err)
	}
	f.normalize(&issue)
	f.enrich(ctx, &issue)
	return issue, nil
}

func (f *Fetcher) normalize(issue *model.Issue) {
	issue.State = model.NormalizeState(issue.State)
	issue.Labels = tools.Convert.Unique(issue.Labels)
	issue.Assignees = tools.Convert.Unique(issue.Assignees)
	if issue.URL == "" {
		issue.URL = tools.Generate.IssueURL(f.conf.Repository, issue.Number)
	}
	if issue.Author == "" {
		issue.Author = "unknown"
	}
}

// enrich 补全子 issue 汇总以及子 issue 列表
func (f *Fetcher) enrich(ctx context.Context, issue *model.Issue) {
	summary, err := f.src.SubIssuesSummary(ctx, issue.Number)
	if err != nil {
		global.Sugar.Warnw("fetch sub-issues summary",
			"issue", issue.Number,
			"err", err.Error())
		return
	}
	if summary == nil {
		return
	}
	// total 为 0 时仍记录汇总，但不需要再查询子 issue
	issue.SubIssues = summary
	if summary.Total == 0 {
		return
	}

	children, err := f.src.SubIssues(ctx, issue.Number)
	if err != nil {
		global.Sugar.Warnw("fetch sub-issues",
			"issue", issue.Number,
			"err", err.Error())
		return
	}
	issue.Tracked = children
}
