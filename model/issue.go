// model 包定义了同步过程中使用的 issue 数据结构
package model

import "strings"

// issue 状态
const (
	StateOpen   = "OPEN"
	StateClosed = "CLOSED"
)

// Issue 一个已经获取完整的 issue
// 渲染出来的本地文件，只依赖 Issue 自身的数据，以及其直接子 issue 的 {number, title, state}
type Issue struct {
	Number    int
	Title     string
	Body      string
	State     string
	Labels    []string
	Assignees []string
	// 为空表示没有 milestone
	Milestone string
	CreatedAt string
	UpdatedAt string
	ClosedAt  string
	Author    string
	URL       string
	Comments  []Comment

	// 子 issue 汇总，nil 表示没有，或者获取失败
	SubIssues *SubIssuesSummary
	// 直接子 issue，不递归展开
	Tracked []TrackedIssue
}

// Comment issue 下的一条评论
type Comment struct {
	Author    string
	Body      string
	CreatedAt string
}

// SubIssuesSummary 子 issue 完成情况
type SubIssuesSummary struct {
	Total            int `json:"total"`
	Completed        int `json:"completed"`
	PercentCompleted int `json:"percent_completed"`
}

// TrackedIssue 子 issue 的引用
type TrackedIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
}

// IsOpen 是否处于 open 状态
func (i Issue) IsOpen() bool {
	return i.State == StateOpen
}

// NormalizeState 将 GitHub 各个接口返回的 state 统一为 OPEN/CLOSED
// 无法识别的值原样（大写）返回
func NormalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

// ValidState 是否为可识别的 state
func ValidState(state string) bool {
	return state == StateOpen || state == StateClosed
}
