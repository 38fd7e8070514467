package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v30/github"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/model"
)

// 每页数量，GitHub 允许的最大值
const perPage = 100

// REST 通过 GitHub REST API 访问 GitHub
type REST struct {
	client *github.Client
	owner  string
	repo   string
	token  string
}

// NewREST 创建基于 REST API 的 Source
func NewREST(client *github.Client, owner, repo, token string) *REST {
	return &REST{client: client, owner: owner, repo: repo, token: token}
}

// check 统一检查 API 调用结果
func check(resp *github.Response, err error, action string) error {
	if err != nil {
		global.Sugar.Errorw(action,
			"call api", "failed",
			"err", err.Error())
		return fmt.Errorf("%s: %w", action, err)
	}
	if resp != nil && (resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices) {
		global.Sugar.Errorw(action,
			"call api", "failed",
			"status code", resp.StatusCode)
		return fmt.Errorf("%s: unexpected status %d", action, resp.StatusCode)
	}
	return nil
}

func (r *REST) ListIssues(ctx context.Context, state string, limit int) ([]model.Issue, error) {
	opt := &github.IssueListByRepoOptions{
		State:       strings.ToLower(state),
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	issues := make([]model.Issue, 0)
	for {
		page, resp, err := r.client.Issues.ListByRepo(ctx, r.owner, r.repo, opt)
		if err := check(resp, err, "list issues"); err != nil {
			return nil, err
		}
		for _, is := range page {
			// REST 接口会同时返回 pull request
			if is.IsPullRequest() {
				continue
			}
			issue, err := r.withComments(ctx, is)
			if err != nil {
				return nil, err
			}
			issues = append(issues, issue)
			if len(issues) >= limit {
				return issues, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return issues, nil
}

func (r *REST) GetIssue(ctx context.Context, number int) (model.Issue, error) {
	is, resp, err := r.client.Issues.Get(ctx, r.owner, r.repo, number)
	if err := check(resp, err, "get issue"); err != nil {
		return model.Issue{}, err
	}
	if is.IsPullRequest() {
		return model.Issue{}, fmt.Errorf("#%d is a pull request", number)
	}
	return r.withComments(ctx, is)
}

// withComments 转换 issue 并获取其全部评论
func (r *REST) withComments(ctx context.Context, is *github.Issue) (model.Issue, error) {
	issue := fromGithub(is)
	if is.GetComments() == 0 {
		return issue, nil
	}
	opt := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	for {
		comments, resp, err := r.client.Issues.ListComments(ctx, r.owner, r.repo, issue.Number, opt)
		if err := check(resp, err, "list comments"); err != nil {
			return issue, err
		}
		for _, c := range comments {
			issue.Comments = append(issue.Comments, model.Comment{
				Author:    loginOrUnknown(c.GetUser().GetLogin()),
				Body:      c.GetBody(),
				CreatedAt: formatTime(c.GetCreatedAt()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return issue, nil
}

func (r *REST) SubIssuesSummary(ctx context.Context, number int) (*model.SubIssuesSummary, error) {
	// go-github 的 Issue 结构中没有 sub_issues_summary，直接请求原始资源
	req, err := r.client.NewRequest(http.MethodGet, fmt.Sprintf("repos/%s/%s/issues/%d", r.owner, r.repo, number), nil)
	if err != nil {
		return nil, err
	}
	detail := &model.IssueDetail{}
	resp, err := r.client.Do(ctx, req, detail)
	if err := check(resp, err, "get issue detail"); err != nil {
		return nil, err
	}
	return detail.SubIssuesSummary, nil
}

func (r *REST) SubIssues(ctx context.Context, number int) ([]model.TrackedIssue, error) {
	req, err := r.client.NewRequest(http.MethodGet, fmt.Sprintf("repos/%s/%s/issues/%d/sub_issues?per_page=50", r.owner, r.repo, number), nil)
	if err != nil {
		return nil, err
	}
	children := make([]model.TrackedIssue, 0)
	resp, err := r.client.Do(ctx, req, &children)
	if err := check(resp, err, "list sub-issues"); err != nil {
		return nil, err
	}
	for i := range children {
		children[i].State = model.NormalizeState(children[i].State)
	}
	return children, nil
}

func (r *REST) SetState(ctx context.Context, number int, state string) error {
	s := strings.ToLower(state)
	_, resp, err := r.client.Issues.Edit(ctx, r.owner, r.repo, number, &github.IssueRequest{State: &s})
	return check(resp, err, "edit issue state")
}

func (r *REST) ListComments(ctx context.Context, number int) ([]model.RemoteComment, error) {
	opt := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	remote := make([]model.RemoteComment, 0)
	for {
		comments, resp, err := r.client.Issues.ListComments(ctx, r.owner, r.repo, number, opt)
		if err := check(resp, err, "list comments"); err != nil {
			return nil, err
		}
		for _, c := range comments {
			remote = append(remote, model.RemoteComment{
				ID:        c.GetID(),
				Body:      c.GetBody(),
				UpdatedAt: formatTime(c.GetUpdatedAt()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return remote, nil
}

func (r *REST) CreateComment(ctx context.Context, number int, body string) error {
	_, resp, err := r.client.Issues.CreateComment(ctx, r.owner, r.repo, number, &github.IssueComment{Body: &body})
	return check(resp, err, "create comment")
}

func (r *REST) UpdateComment(ctx context.Context, id int64, body string) error {
	_, resp, err := r.client.Issues.EditComment(ctx, r.owner, r.repo, id, &github.IssueComment{Body: &body})
	return check(resp, err, "update comment")
}

func (r *REST) Token(ctx context.Context) (string, error) {
	if r.token == "" {
		return "", fmt.Errorf("no token configured")
	}
	return r.token, nil
}

// fromGithub 将 go-github 的 Issue 转换为 model.Issue，不包括评论
func fromGithub(is *github.Issue) model.Issue {
	issue := model.Issue{
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		Body:      is.GetBody(),
		State:     model.NormalizeState(is.GetState()),
		URL:       is.GetHTMLURL(),
		CreatedAt: formatTime(is.GetCreatedAt()),
		UpdatedAt: formatTime(is.GetUpdatedAt()),
		ClosedAt:  formatTime(is.GetClosedAt()),
		Author:    loginOrUnknown(is.GetUser().GetLogin()),
		Milestone: is.GetMilestone().GetTitle(),
	}
	for _, l := range is.Labels {
		issue.Labels = append(issue.Labels, l.GetName())
	}
	for _, a := range is.Assignees {
		issue.Assignees = append(issue.Assignees, a.GetLogin())
	}
	return issue
}

// formatTime 与 gh 输出的时间格式保持一致
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func loginOrUnknown(l string) string {
	if l == "" {
		return "unknown"
	}
	return l
}
