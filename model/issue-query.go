package model

// 以下结构对应 gh 命令行及 REST API 返回的原始 JSON
// 仅保留同步需要用到的字段

// IssueRecord gh issue list/view --json 返回的单个 issue
type IssueRecord struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	URL       string `json:"url"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	ClosedAt  string `json:"closedAt"`
	Author    *Actor `json:"author"`
	Labels    []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Assignees []Actor `json:"assignees"`
	Milestone *struct {
		Title string `json:"title"`
	} `json:"milestone"`
	Comments []struct {
		Author    *Actor `json:"author"`
		Body      string `json:"body"`
		CreatedAt string `json:"createdAt"`
	} `json:"comments"`
}

// Actor 作者、指派人
type Actor struct {
	Login string `json:"login"`
}

// IssueDetail REST 接口 /repos/{owner}/{repo}/issues/{number} 返回的 issue 资源
// issue list 不包含 sub_issues_summary，需要单独查询
type IssueDetail struct {
	Number           int               `json:"number"`
	SubIssuesSummary *SubIssuesSummary `json:"sub_issues_summary"`
}

// SubIssuesQuery GraphQL 查询子 issue 的响应
type SubIssuesQuery struct {
	Data struct {
		Repository struct {
			Issue struct {
				SubIssues struct {
					Nodes []TrackedIssue `json:"nodes"`
				} `json:"subIssues"`
			} `json:"issue"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// RemoteComment 发布计划时需要用到的评论信息
type RemoteComment struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	UpdatedAt string `json:"updated_at"`
}
