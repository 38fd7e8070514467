package model

// Metadata 是写在每个 issue 文件末尾的 JSON 快照
// 这是本工具唯一持久化的结构化数据，State Pusher 也只读取这一部分。
type Metadata struct {
	Number        int               `json:"number"`
	Title         string            `json:"title"`
	State         string            `json:"state"`
	Labels        []string          `json:"labels"`
	Assignees     []string          `json:"assignees"`
	Milestone     string            `json:"milestone"`
	Created       string            `json:"created"`
	Updated       string            `json:"updated"`
	Closed        string            `json:"closed"`
	Author        string            `json:"author"`
	CommentCount  int               `json:"commentCount"`
	GithubURL     string            `json:"githubUrl"`
	SubIssues     *SubIssuesSummary `json:"subIssues"`
	TrackedIssues []TrackedIssue    `json:"trackedIssues"`
}

// Metadata 生成 issue 的元数据快照
// 切片总是非 nil，以保证 JSON 中输出的是 [] 而不是 null
func (i Issue) Metadata() Metadata {
	m := Metadata{
		Number:        i.Number,
		Title:         i.Title,
		State:         i.State,
		Labels:        append(make([]string, 0, len(i.Labels)), i.Labels...),
		Assignees:     append(make([]string, 0, len(i.Assignees)), i.Assignees...),
		Milestone:     i.Milestone,
		Created:       i.CreatedAt,
		Updated:       i.UpdatedAt,
		Closed:        i.ClosedAt,
		Author:        i.Author,
		CommentCount:  len(i.Comments),
		GithubURL:     i.URL,
		TrackedIssues: append(make([]TrackedIssue, 0, len(i.Tracked)), i.Tracked...),
	}
	if i.SubIssues != nil {
		s := *i.SubIssues
		m.SubIssues = &s
	}
	return m
}
