package store

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func content(hash, body string) string {
	return body + "\n<!-- Content-Hash: " + hash + " -->\n"
}

func TestWriteIssue(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "issues", "README.md", false)

	r, err := s.WriteIssue(1, content("aaaa", "first"), "aaaa")
	require.NoError(t, err)
	assert.Equal(t, Created, r.Status)
	assert.True(t, r.Changed())

	// hash 相同时不写入，即使内容不同
	r, err = s.WriteIssue(1, content("aaaa", "other timestamp"), "aaaa")
	require.NoError(t, err)
	assert.Equal(t, Unchanged, r.Status)
	data, _ := afero.ReadFile(fs, "issues/1.md")
	assert.Contains(t, string(data), "first")

	r, err = s.WriteIssue(1, content("bbbb", "second"), "bbbb")
	require.NoError(t, err)
	assert.Equal(t, Updated, r.Status)
	data, _ = afero.ReadFile(fs, "issues/1.md")
	assert.Contains(t, string(data), "second")
}

func TestWriteIssueNoHashInFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "issues/2.md", []byte("hand written"), 0644))
	s := New(fs, "issues", "README.md", false)

	r, err := s.WriteIssue(2, content("cccc", "new"), "cccc")
	require.NoError(t, err)
	assert.Equal(t, Updated, r.Status)
}

func TestWriteDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "issues/3.md", []byte("a\nb\nc\n"), 0644))
	s := New(fs, "issues", "README.md", true)

	r, err := s.WriteIssue(3, "a\nB\nc\nd\n", "dddd")
	require.NoError(t, err)
	assert.Equal(t, Updated, r.Status)
	assert.Equal(t, 2, r.Added)
	assert.Equal(t, 1, r.Removed)

	data, _ := afero.ReadFile(fs, "issues/3.md")
	assert.Equal(t, "a\nb\nc\n", string(data))

	r, err = s.WriteIndex("x\n", "eeee")
	require.NoError(t, err)
	assert.Equal(t, Created, r.Status)
	exists, _ := afero.Exists(fs, "issues/README.md")
	assert.False(t, exists)
}

func TestIssueNumbersAndRemoveStale(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"1.md", "5.md", "12.md", "README.md", "notes.md", "0.md"} {
		require.NoError(t, afero.WriteFile(fs, "issues/"+name, []byte("x"), 0644))
	}
	require.NoError(t, fs.MkdirAll("issues/images", 0755))

	s := New(fs, "issues", "README.md", false)
	numbers, err := s.IssueNumbers()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 12}, numbers)

	dry := New(fs, "issues", "README.md", true)
	removed, err := dry.RemoveStale(map[int]bool{5: true})
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	exists, _ := afero.Exists(fs, "issues/1.md")
	assert.True(t, exists)

	removed, err = s.RemoveStale(map[int]bool{5: true})
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	numbers, _ = s.IssueNumbers()
	assert.Equal(t, []int{5}, numbers)
	exists, _ = afero.Exists(fs, "issues/README.md")
	assert.True(t, exists)
}

func TestIssueNumbersMissingDir(t *testing.T) {
	s := New(afero.NewMemMapFs(), "nowhere", "README.md", false)
	numbers, err := s.IssueNumbers()
	require.NoError(t, err)
	assert.Empty(t, numbers)
}
