// render 包将 issue 渲染为 markdown 文件，以及生成索引文件
// 本包只包含纯函数，不读写文件
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jt196/github-issue-sync/model"
	"github.com/jt196/github-issue-sync/tools"
)

// 文件末尾的标记
const (
	AutoGenerated = "<!-- AUTO-GENERATED: DO NOT EDIT MANUALLY -->"
	noDescription = "_No description provided_"
)

// FormatDate 将 ISO 时间格式化为 M/D/YYYY，无法解析时原样返回
func FormatDate(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// StateIcon open 为绿色，其余为白色
func StateIcon(state string) string {
	if state == model.StateOpen {
		return "🟢"
	}
	return "⚪"
}

// hashable 参与计算内容 hash 的字段
// 不包含 updatedAt，仅更新时间变化时不需要重写文件
type hashable struct {
	Number    int                     `json:"number"`
	Title     string                  `json:"title"`
	State     string                  `json:"state"`
	Labels    []string                `json:"labels"`
	Assignees []string                `json:"assignees"`
	Milestone string                  `json:"milestone"`
	Body      string                  `json:"body"`
	Comments  []hashableComment       `json:"comments"`
	SubIssues *model.SubIssuesSummary `json:"sub_issues,omitempty"`
	Tracked   []model.TrackedIssue    `json:"tracked_issues,omitempty"`
}

type hashableComment struct {
	Author  string `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

// ContentHash 计算 issue 的内容 hash
// body 和 comments 为图片处理之后的内容，comments 与 issue.Comments 一一对应
func ContentHash(issue model.Issue, body string, comments []string) string {
	h := hashable{
		Number:    issue.Number,
		Title:     issue.Title,
		State:     issue.State,
		Labels:    tools.Convert.Sorted(issue.Labels),
		Assignees: tools.Convert.Sorted(issue.Assignees),
		Milestone: issue.Milestone,
		Body:      body,
		Comments:  make([]hashableComment, 0, len(issue.Comments)),
		SubIssues: issue.SubIssues,
		Tracked:   issue.Tracked,
	}
	for i, c := range issue.Comments {
		h.Comments = append(h.Comments, hashableComment{
			Author:  c.Author,
			Body:    commentBody(comments, i, c),
			Created: c.CreatedAt,
		})
	}
	// 结构体字段顺序固定，序列化结果稳定
	data, _ := json.Marshal(h)
	return tools.Generate.Hash(data)
}

// Issue 渲染单个 issue 文件的完整内容
func Issue(issue model.Issue, body string, comments []string, hash string, syncedAt time.Time) string {
	lines := make([]string, 0, 64)
	add := func(l ...string) {
		lines = append(lines, l...)
	}

	add("---",
		fmt.Sprintf("# Issue #%d: %s", issue.Number, issue.Title),
		"",
		fmt.Sprintf("**Status:** %s", strings.ToUpper(issue.State)),
		fmt.Sprintf("**Created:** %s", FormatDate(issue.CreatedAt)))
	if issue.UpdatedAt != "" {
		add(fmt.Sprintf("**Updated:** %s", FormatDate(issue.UpdatedAt)))
	}
	if len(issue.Labels) > 0 {
		add(fmt.Sprintf("**Labels:** %s", strings.Join(issue.Labels, ", ")))
	}
	if len(issue.Assignees) > 0 {
		add(fmt.Sprintf("**Assignees:** %s", strings.Join(issue.Assignees, ", ")))
	}
	if issue.Milestone != "" {
		add(fmt.Sprintf("**Milestone:** %s", issue.Milestone))
	}
	add(fmt.Sprintf("**GitHub:** [View on GitHub](%s)", issue.URL),
		"",
		"---",
		"")

	add("## Description", "")
	if strings.TrimSpace(body) != "" {
		add(body)
	} else {
		add(noDescription)
	}
	add("")

	if s := issue.SubIssues; s != nil && s.Total > 0 {
		add("## Sub-Issues",
			"",
			fmt.Sprintf("**Progress:** %d/%d (%d%%)", s.Completed, s.Total, s.PercentCompleted),
			"")
		for _, sub := range issue.Tracked {
			add(fmt.Sprintf("- %s [#%d](%s): %s", StateIcon(sub.State), sub.Number, tools.Generate.IssueFile(sub.Number), sub.Title))
		}
		if len(issue.Tracked) > 0 {
			add("")
		}
	}

	if len(issue.Comments) > 0 {
		add(fmt.Sprintf("## Comments (%d)", len(issue.Comments)), "")
		for i, c := range issue.Comments {
			add(fmt.Sprintf("### %s - %s", c.Author, FormatDate(c.CreatedAt)),
				"",
				commentBody(comments, i, c),
				"",
				"---",
				"")
		}
	}

	meta, _ := json.Marshal(issue.Metadata())
	add(AutoGenerated,
		fmt.Sprintf("<!-- Content-Hash: %s -->", hash),
		fmt.Sprintf("<!-- Last synced: %s -->", syncedAt.UTC().Format(time.RFC3339)),
		fmt.Sprintf("<!-- Metadata: %s -->", meta))

	return strings.Join(lines, "\n") + "\n"
}

// commentBody 处理之后的评论内容，缺失时使用原始内容
func commentBody(comments []string, i int, c model.Comment) string {
	if i < len(comments) {
		return comments[i]
	}
	return c.Body
}
