package operation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/model"
	"github.com/jt196/github-issue-sync/tools"
)

// memSource 内存中的 GitHub
type memSource struct {
	issues     map[int]model.Issue
	listErr    error
	summaries  map[int]*model.SubIssuesSummary
	summaryErr map[int]error
	children   map[int][]model.TrackedIssue
	states     map[int]string
	comments   map[int][]model.RemoteComment
	created    map[int]string
	updated    map[int64]string
}

func newMemSource(issues ...model.Issue) *memSource {
	m := &memSource{
		issues:    map[int]model.Issue{},
		summaries:  map[int]*model.SubIssuesSummary{},
		summaryErr: map[int]error{},
		children:  map[int][]model.TrackedIssue{},
		states:    map[int]string{},
		comments:  map[int][]model.RemoteComment{},
		created:   map[int]string{},
		updated:   map[int64]string{},
	}
	for _, is := range issues {
		m.issues[is.Number] = is
	}
	return m
}

func (m *memSource) ListIssues(ctx context.Context, state string, limit int) ([]model.Issue, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.Issue, 0)
	for n := 1000; n > 0; n-- {
		is, ok := m.issues[n]
		if !ok {
			continue
		}
		if state == "open" && is.State != model.StateOpen {
			continue
		}
		out = append(out, is)
	}
	return out, nil
}

func (m *memSource) GetIssue(ctx context.Context, number int) (model.Issue, error) {
	is, ok := m.issues[number]
	if !ok {
		return model.Issue{}, errors.New("HTTP 404: Not Found")
	}
	return is, nil
}

func (m *memSource) SubIssuesSummary(ctx context.Context, number int) (*model.SubIssuesSummary, error) {
	if err := m.summaryErr[number]; err != nil {
		return nil, err
	}
	return m.summaries[number], nil
}

func (m *memSource) SubIssues(ctx context.Context, number int) ([]model.TrackedIssue, error) {
	return m.children[number], nil
}

func (m *memSource) SetState(ctx context.Context, number int, state string) error {
	m.states[number] = state
	return nil
}

func (m *memSource) ListComments(ctx context.Context, number int) ([]model.RemoteComment, error) {
	return m.comments[number], nil
}

func (m *memSource) CreateComment(ctx context.Context, number int, body string) error {
	m.created[number] = body
	return nil
}

func (m *memSource) UpdateComment(ctx context.Context, id int64, body string) error {
	m.updated[id] = body
	return nil
}

func (m *memSource) Token(ctx context.Context) (string, error) {
	return "token", nil
}

type countingDownloader struct {
	calls int
}

func (d *countingDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	d.calls++
	return []byte("\x89PNG"), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Repository:   "owner/repo",
		OutputDir:    "issues",
		ImagesSubdir: "images",
		IndexFile:    "README.md",
		SyncClosed:   true,
		Limit:        100,
		ImageRetries: 3,
		ImageBackoff: time.Millisecond,
		ImageHosts:   []string{"github.com", "githubusercontent.com"},
		ImageNaming:  config.NamingPosition,
		PlanDir:      "plans",
	}
}

func issue42() model.Issue {
	return model.Issue{
		Number:    42,
		Title:     "Fix bug",
		Body:      "![screenshot](https://github.com/owner/repo/assets/1.png)",
		State:     "CLOSED",
		Labels:    []string{"bug"},
		CreatedAt: "2024-01-05T10:00:00Z",
		UpdatedAt: "2024-01-06T10:00:00Z",
		Author:    "bob",
		Comments:  []model.Comment{{Author: "alice", Body: "Works now", CreatedAt: "2024-01-06T09:00:00Z"}},
	}
}

func read(t *testing.T, fs afero.Fs, name string) string {
	data, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

func TestSyncScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	dl := &countingDownloader{}
	s := NewSyncer(testConfig(), newMemSource(issue42()), fs, dl)

	stats, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Written)
	assert.Empty(t, stats.Errors)
	assert.True(t, stats.IndexWritten)

	out := read(t, fs, "issues/42.md")
	assert.Contains(t, out, "**Status:** CLOSED")
	assert.Contains(t, out, "## Comments (1)")
	assert.Contains(t, out, "### alice - ")
	assert.Contains(t, out, "## Description\n\n![screenshot](images/issue-42-1.png)")

	meta, err := tools.Parse.Metadata(out)
	require.NoError(t, err)
	assert.Equal(t, 42, meta.Number)
	assert.Equal(t, []string{"bug"}, meta.Labels)
	assert.Equal(t, "https://github.com/owner/repo/issues/42", meta.GithubURL)

	img := read(t, fs, "issues/images/issue-42-1.png")
	assert.NotEmpty(t, img)

	index := read(t, fs, "issues/README.md")
	assert.Contains(t, index, "\n| [42](42.md) |")
}

func TestSyncIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	dl := &countingDownloader{}
	src := newMemSource(issue42(), model.Issue{Number: 7, Title: "Open one", State: "OPEN"})
	s := NewSyncer(testConfig(), src, fs, dl)

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	_, err := s.Sync(context.Background())
	require.NoError(t, err)
	first42, firstIndex := read(t, fs, "issues/42.md"), read(t, fs, "issues/README.md")
	downloads := dl.calls

	// 时间变化，但 issue 没有变化
	now = now.Add(time.Hour)
	stats, err := s.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, downloads, dl.calls)
	assert.Equal(t, 0, stats.Images.Downloaded)
	assert.Equal(t, 0, stats.Written)
	assert.Equal(t, 2, stats.Unchanged)
	assert.False(t, stats.IndexWritten)
	assert.Equal(t, first42, read(t, fs, "issues/42.md"))
	assert.Equal(t, firstIndex, read(t, fs, "issues/README.md"))
}

func TestSyncFetchFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newMemSource()
	src.listErr = errors.New("gh: authentication required")
	s := NewSyncer(testConfig(), src, fs, &countingDownloader{})

	_, err := s.Sync(context.Background())
	assert.Error(t, err)
	exists, _ := afero.Exists(fs, "issues/README.md")
	assert.False(t, exists)
}

func TestSyncDegradedRelationships(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newMemSource(
		model.Issue{Number: 1, Title: "Parent", State: "OPEN"},
		model.Issue{Number: 2, Title: "Other", State: "OPEN"},
	)
	src.summaryErr[1] = errors.New("HTTP 502")
	src.summaries[2] = &model.SubIssuesSummary{Total: 1}
	src.children[2] = []model.TrackedIssue{{Number: 1, Title: "Parent", State: model.StateOpen}}
	s := NewSyncer(testConfig(), src, fs, &countingDownloader{})

	stats, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats.Errors)
	assert.Equal(t, 2, stats.Written)
	assert.True(t, stats.IndexWritten)

	out := read(t, fs, "issues/1.md")
	assert.NotContains(t, out, "## Sub-Issues")
	assert.Contains(t, out, `"subIssues":null`)
	assert.Contains(t, out, `"trackedIssues":[]`)

	other := read(t, fs, "issues/2.md")
	assert.Contains(t, other, "## Sub-Issues")
	index := read(t, fs, "issues/README.md")
	assert.Contains(t, index, "[1](1.md)")
	assert.Contains(t, index, "[2](2.md)")
}

func TestSyncSubIssues(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newMemSource(
		model.Issue{Number: 10, Title: "Epic", State: "OPEN"},
		model.Issue{Number: 11, Title: "Part", State: "CLOSED"},
	)
	src.summaries[10] = &model.SubIssuesSummary{Total: 1, Completed: 1, PercentCompleted: 100}
	src.children[10] = []model.TrackedIssue{{Number: 11, Title: "Part", State: "CLOSED"}}
	s := NewSyncer(testConfig(), src, fs, &countingDownloader{})

	_, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Contains(t, read(t, fs, "issues/10.md"), "- ⚪ [#11](11.md): Part")
}

func TestSyncRemoveClosed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "issues/3.md", []byte("old closed issue"), 0644))
	conf := testConfig()
	conf.SyncClosed = false
	src := newMemSource(issue42(), model.Issue{Number: 7, Title: "Open", State: "OPEN"})
	s := NewSyncer(conf, src, fs, &countingDownloader{})

	stats, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Removed)
	exists, _ := afero.Exists(fs, "issues/3.md")
	assert.False(t, exists)
	exists, _ = afero.Exists(fs, "issues/7.md")
	assert.True(t, exists)
}

func TestSyncDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	conf := testConfig()
	conf.DryRun = true
	dl := &countingDownloader{}
	s := NewSyncer(conf, newMemSource(issue42()), fs, dl)

	stats, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)
	assert.Equal(t, 0, dl.calls)
	exists, _ := afero.DirExists(fs, "issues")
	assert.False(t, exists)
}

func TestSyncPushFirst(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := newMemSource(issue42())
	s := NewSyncer(testConfig(), src, fs, &countingDownloader{})
	_, err := s.Sync(context.Background())
	require.NoError(t, err)

	// 在本地将 issue 重新打开
	out := read(t, fs, "issues/42.md")
	out = strings.Replace(out, `"state":"CLOSED"`, `"state":"OPEN"`, 1)
	require.NoError(t, afero.WriteFile(fs, "issues/42.md", []byte(out), 0644))

	conf := testConfig()
	conf.PushState = true
	stats, err := NewSyncer(conf, src, fs, &countingDownloader{}).Sync(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.Push)
	assert.Equal(t, 1, stats.Push.Pushed)
	assert.Equal(t, "OPEN", src.states[42])
}

func TestSyncIssue(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewSyncer(testConfig(), newMemSource(issue42()), fs, &countingDownloader{})

	stats, err := s.SyncIssue(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)
	exists, _ := afero.Exists(fs, "issues/README.md")
	assert.False(t, exists)

	_, err = s.SyncIssue(context.Background(), 404)
	assert.Error(t, err)
}
