package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/model"
)

// gh issue list/view 需要获取的字段
var issueFields = strings.Join([]string{
	"number", "title", "body", "state", "url",
	"labels", "assignees", "milestone",
	"createdAt", "updatedAt", "closedAt",
	"comments", "author",
}, ",")

// 子 issue 查询，最多取 50 个
const subIssuesQuery = `query($owner: String!, $name: String!, $number: Int!) {
  repository(owner: $owner, name: $name) {
    issue(number: $number) {
      subIssues(first: 50) {
        nodes { number title state }
      }
    }
  }
}`

// Runner 执行 gh 命令，返回标准输出
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner 通过 os/exec 调用 gh
type ExecRunner struct {
	// gh 可执行文件路径
	Path string
	// 可选，为空时 gh 使用自身保存的认证信息
	Token string
}

// Run 执行命令，失败时将标准错误的内容带到 error 中
func (r ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	path := r.Path
	if path == "" {
		path = "gh"
	}
	cmd := exec.CommandContext(ctx, path, args...)
	if r.Token != "" {
		cmd.Env = append(os.Environ(), "GH_TOKEN="+r.Token)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	global.Sugar.Debugw("run gh", "args", args)
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(string(out))
		}
		return nil, fmt.Errorf("gh %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return out, nil
}

// Gh 通过 gh 命令行访问 GitHub
type Gh struct {
	runner Runner
	// owner/repo
	repo string
}

// NewGh 创建基于 gh 命令行的 Source
func NewGh(runner Runner, repo string) *Gh {
	return &Gh{runner: runner, repo: repo}
}

func (g *Gh) ListIssues(ctx context.Context, state string, limit int) ([]model.Issue, error) {
	out, err := g.runner.Run(ctx, "issue", "list",
		"--repo", g.repo,
		"--state", state,
		"--limit", strconv.Itoa(limit),
		"--json", issueFields)
	if err != nil {
		return nil, err
	}
	records := make([]model.IssueRecord, 0)
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("parse issue list: %w", err)
	}
	issues := make([]model.Issue, 0, len(records))
	for _, r := range records {
		issues = append(issues, fromRecord(r))
	}
	return issues, nil
}

func (g *Gh) GetIssue(ctx context.Context, number int) (model.Issue, error) {
	out, err := g.runner.Run(ctx, "issue", "view", strconv.Itoa(number),
		"--repo", g.repo,
		"--json", issueFields)
	if err != nil {
		return model.Issue{}, err
	}
	r := model.IssueRecord{}
	if err := json.Unmarshal(out, &r); err != nil {
		return model.Issue{}, fmt.Errorf("parse issue view: %w", err)
	}
	return fromRecord(r), nil
}

func (g *Gh) SubIssuesSummary(ctx context.Context, number int) (*model.SubIssuesSummary, error) {
	out, err := g.runner.Run(ctx, "api", fmt.Sprintf("repos/%s/issues/%d", g.repo, number))
	if err != nil {
		return nil, err
	}
	detail := model.IssueDetail{}
	if err := json.Unmarshal(out, &detail); err != nil {
		return nil, fmt.Errorf("parse issue detail: %w", err)
	}
	return detail.SubIssuesSummary, nil
}

func (g *Gh) SubIssues(ctx context.Context, number int) ([]model.TrackedIssue, error) {
	owner, name := splitRepo(g.repo)
	out, err := g.runner.Run(ctx, "api", "graphql",
		"-f", "query="+subIssuesQuery,
		"-f", "owner="+owner,
		"-f", "name="+name,
		"-F", "number="+strconv.Itoa(number))
	if err != nil {
		return nil, err
	}
	resp := model.SubIssuesQuery{}
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("parse sub-issues: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql: %s", resp.Errors[0].Message)
	}
	nodes := resp.Data.Repository.Issue.SubIssues.Nodes
	tracked := make([]model.TrackedIssue, 0, len(nodes))
	for _, n := range nodes {
		n.State = model.NormalizeState(n.State)
		tracked = append(tracked, n)
	}
	return tracked, nil
}

func (g *Gh) SetState(ctx context.Context, number int, state string) error {
	_, err := g.runner.Run(ctx, "api", "-X", "PATCH",
		fmt.Sprintf("repos/%s/issues/%d", g.repo, number),
		"-f", "state="+strings.ToLower(state))
	return err
}

// ListComments 使用 --paginate 获取全部评论
// 分页输出是多个 JSON 数组首尾相接，需要逐个解析
func (g *Gh) ListComments(ctx context.Context, number int) ([]model.RemoteComment, error) {
	out, err := g.runner.Run(ctx, "api", "--paginate",
		fmt.Sprintf("repos/%s/issues/%d/comments", g.repo, number))
	if err != nil {
		return nil, err
	}
	comments := make([]model.RemoteComment, 0)
	dec := json.NewDecoder(bytes.NewReader(out))
	for {
		page := make([]model.RemoteComment, 0)
		err := dec.Decode(&page)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse comments: %w", err)
		}
		comments = append(comments, page...)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].UpdatedAt < comments[j].UpdatedAt
	})
	return comments, nil
}

func (g *Gh) CreateComment(ctx context.Context, number int, body string) error {
	_, err := g.runner.Run(ctx, "api", "-X", "POST",
		fmt.Sprintf("repos/%s/issues/%d/comments", g.repo, number),
		"-f", "body="+body)
	return err
}

func (g *Gh) UpdateComment(ctx context.Context, id int64, body string) error {
	_, err := g.runner.Run(ctx, "api", "-X", "PATCH",
		fmt.Sprintf("repos/%s/issues/comments/%d", g.repo, id),
		"-f", "body="+body)
	return err
}

func (g *Gh) Token(ctx context.Context) (string, error) {
	out, err := g.runner.Run(ctx, "auth", "token")
	if err != nil {
		return "", fmt.Errorf("not authenticated with gh, run 'gh auth login' first: %w", err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("gh returned an empty token")
	}
	return token, nil
}

// fromRecord 将 gh 的输出转换为 model.Issue
func fromRecord(r model.IssueRecord) model.Issue {
	issue := model.Issue{
		Number:    r.Number,
		Title:     r.Title,
		Body:      r.Body,
		State:     model.NormalizeState(r.State),
		URL:       r.URL,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ClosedAt:  r.ClosedAt,
		Author:    login(r.Author),
	}
	for _, l := range r.Labels {
		issue.Labels = append(issue.Labels, l.Name)
	}
	for _, a := range r.Assignees {
		issue.Assignees = append(issue.Assignees, a.Login)
	}
	if r.Milestone != nil {
		issue.Milestone = r.Milestone.Title
	}
	for _, c := range r.Comments {
		issue.Comments = append(issue.Comments, model.Comment{
			Author:    login(c.Author),
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
	}
	return issue
}

func login(a *model.Actor) string {
	if a == nil || a.Login == "" {
		return "unknown"
	}
	return a.Login
}

func splitRepo(repo string) (owner, name string) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 {
		return repo, ""
	}
	return parts[0], parts[1]
}
