package render

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jt196/github-issue-sync/model"
	"github.com/jt196/github-issue-sync/tools"
)

const noMilestone = "No Milestone"

// IndexOptions 索引文件中需要展示的路径等信息
type IndexOptions struct {
	Repository string
	// issue 文件所在目录
	OutputDir string
	// 图片目录
	ImagesDir string
	// 索引文件名
	IndexFile string
	SyncedAt  time.Time
}

// Index 生成索引文件，返回内容以及内容 hash
// hash 不包含同步时间，issue 没有变化时 hash 不变
func Index(issues []model.Issue, opt IndexOptions) (string, string) {
	body := index(issues, opt)
	hash := tools.Generate.Hash([]byte(body))

	header := []string{
		fmt.Sprintf("# GitHub Issues - %s", opt.Repository),
		"",
		"**AUTO-GENERATED DOCUMENTATION** - Do not edit manually",
		"",
		fmt.Sprintf("Last synced: %s", opt.SyncedAt.UTC().Format(time.RFC3339)),
		"",
	}
	footer := []string{
		AutoGenerated,
		fmt.Sprintf("<!-- Content-Hash: %s -->", hash),
	}
	return strings.Join(header, "\n") + "\n" + body + strings.Join(footer, "\n") + "\n", hash
}

// index 索引中与同步时间无关的部分
func index(issues []model.Issue, opt IndexOptions) string {
	lines := make([]string, 0, len(issues)+64)
	add := func(l ...string) {
		lines = append(lines, l...)
	}

	open := make([]model.Issue, 0)
	closed := 0
	labels := make([]string, 0)
	for _, is := range issues {
		if is.State == model.StateOpen {
			open = append(open, is)
		} else if is.State == model.StateClosed {
			closed++
		}
		labels = append(labels, is.Labels...)
	}
	labels = tools.Convert.Sorted(tools.Convert.Unique(labels))

	add(fmt.Sprintf("Total issues: %d", len(issues)),
		"",
		"## Quick Stats",
		"",
		fmt.Sprintf("- **Open:** %d", len(open)),
		fmt.Sprintf("- **Closed:** %d", closed),
		fmt.Sprintf("- **Total:** %d", len(issues)),
		"")
	if len(labels) > 0 {
		add(fmt.Sprintf("**Labels:** %s", strings.Join(labels, ", ")), "")
	}

	add("## All Issues",
		"",
		"| # | Title | State | Labels | Assignees | Comments | Updated |",
		"|---|-------|-------|--------|-----------|----------|---------|")
	sorted := append(make([]model.Issue, 0, len(issues)), issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number > sorted[j].Number
	})
	for _, is := range sorted {
		add(fmt.Sprintf("| [%d](%s) | %s | %s %s | %s | %s | %d | %s |",
			is.Number, tools.Generate.IssueFile(is.Number),
			cell(is.Title),
			StateIcon(is.State), is.State,
			tools.Convert.Join(is.Labels, "-"),
			tools.Convert.Join(is.Assignees, "-"),
			len(is.Comments),
			FormatDate(is.UpdatedAt)))
	}
	add("", "---", "")

	if len(open) > 0 {
		add("## Open Issues", "")
		// 按首次出现的顺序分组
		order := make([]string, 0)
		groups := make(map[string][]model.Issue)
		for _, is := range open {
			m := is.Milestone
			if m == "" {
				m = noMilestone
			}
			if _, ok := groups[m]; !ok {
				order = append(order, m)
			}
			groups[m] = append(groups[m], is)
		}
		for _, m := range order {
			add(fmt.Sprintf("### %s", m), "")
			for _, is := range groups[m] {
				line := fmt.Sprintf("- [#%d](%s): %s", is.Number, tools.Generate.IssueFile(is.Number), is.Title)
				for _, l := range is.Labels {
					line += fmt.Sprintf(" `%s`", l)
				}
				add(line)
			}
			add("")
		}
	}

	dir := strings.TrimRight(path.Clean(strings.ReplaceAll(opt.OutputDir, "\\", "/")), "/")
	images := strings.TrimRight(path.Clean(strings.ReplaceAll(opt.ImagesDir, "\\", "/")), "/")
	add("---",
		"",
		"## Usage",
		"",
		"### Reading Issues",
		"",
		"```bash",
		"# Read a specific issue",
		fmt.Sprintf("cat %s/{number}.md", dir),
		"",
		"# View this index",
		fmt.Sprintf("cat %s/%s", dir, opt.IndexFile),
		"```",
		"",
		"### Working on an Issue",
		"",
		fmt.Sprintf("1. Read the issue file: `%s/{number}.md`", dir),
		fmt.Sprintf("2. View screenshots (images are in `%s/`)", images),
		"3. Create a branch: `git checkout -b issue-{number}-description`",
		"4. Implement changes",
		"5. Reference the issue in the commit: `Fixes #{number}: Description`",
		"",
		"### Syncing Issues",
		"",
		"```bash",
		"# Sync issues from GitHub",
		"issue-sync sync",
		"",
		"# Force re-download all images",
		"issue-sync sync --force-images",
		"",
		"# Preview changes without writing",
		"issue-sync sync --dry-run",
		"",
		"# Push local state changes back to GitHub",
		"issue-sync push",
		"```",
		"")

	return strings.Join(lines, "\n") + "\n"
}

// cell 表格中的内容不能包含 | 以及换行
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
