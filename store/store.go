// store 包负责将渲染好的内容写入输出目录
// 通过比较内容 hash，跳过没有变化的文件
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/tools"
)

// 写入结果
const (
	Created   = "created"
	Updated   = "updated"
	Unchanged = "unchanged"
)

// Result 一次写入的结果
type Result struct {
	File   string
	Status string
	// dry run 时，与现有文件相比增加/删除的行数
	Added   int
	Removed int
}

// Changed 文件是否（将要）被写入
func (r Result) Changed() bool {
	return r.Status != Unchanged
}

// Store 输出目录
type Store struct {
	fs        afero.Fs
	dir       string
	indexFile string
	dryRun    bool
}

// New 创建 Store
func New(fs afero.Fs, dir, indexFile string, dryRun bool) *Store {
	return &Store{fs: fs, dir: dir, indexFile: indexFile, dryRun: dryRun}
}

// Dir 输出目录
func (s *Store) Dir() string {
	return s.dir
}

// IssuePath issue 文件的完整路径
func (s *Store) IssuePath(number int) string {
	return filepath.Join(s.dir, tools.Generate.IssueFile(number))
}

// WriteIssue 写入 issue 文件，已有文件的 hash 与 hash 相同时跳过
func (s *Store) WriteIssue(number int, content, hash string) (Result, error) {
	return s.write(s.IssuePath(number), content, hash)
}

// WriteIndex 写入索引文件，规则与 WriteIssue 相同
func (s *Store) WriteIndex(content, hash string) (Result, error) {
	return s.write(filepath.Join(s.dir, s.indexFile), content, hash)
}

func (s *Store) write(file, content, hash string) (Result, error) {
	result := Result{File: file, Status: Created}

	old, err := afero.ReadFile(s.fs, file)
	switch {
	case err == nil:
		if existing := tools.Parse.ContentHash(string(old)); existing != "" && existing == hash {
			result.Status = Unchanged
			global.Sugar.Debugw("write file",
				"file", file,
				"status", Unchanged)
			return result, nil
		}
		result.Status = Updated
	case os.IsNotExist(err):
	default:
		return result, fmt.Errorf("read %s: %w", file, err)
	}

	if s.dryRun {
		result.Added, result.Removed = lineDiff(string(old), content)
		global.Sugar.Infow("write file",
			"dry run", true,
			"file", file,
			"status", result.Status,
			"added lines", result.Added,
			"removed lines", result.Removed)
		return result, nil
	}

	if err := s.fs.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return result, fmt.Errorf("create dir for %s: %w", file, err)
	}
	if err := afero.WriteFile(s.fs, file, []byte(content), 0644); err != nil {
		return result, fmt.Errorf("write %s: %w", file, err)
	}
	global.Sugar.Infow("write file",
		"file", file,
		"status", result.Status)
	return result, nil
}

// lineDiff 按行比较，返回增加和删除的行数
func lineDiff(old, new string) (added, removed int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if !strings.HasSuffix(d.Text, "\n") && d.Text != "" {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

// IssueNumbers 输出目录中所有 issue 文件对应的 number，升序
// 文件名不是 <number>.md 的文件会被忽略
func (s *Store) IssueNumbers() ([]int, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	numbers := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") || e.Name() == s.indexFile {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(e.Name(), ".md"))
		if err != nil || n <= 0 {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// ReadIssue 读取 issue 文件内容
func (s *Store) ReadIssue(number int) (string, error) {
	data, err := afero.ReadFile(s.fs, s.IssuePath(number))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RemoveStale 移除不在 keep 中的 issue 文件，返回被移除（dry run 时为将要移除）的文件
func (s *Store) RemoveStale(keep map[int]bool) ([]string, error) {
	numbers, err := s.IssueNumbers()
	if err != nil {
		return nil, err
	}
	removed := make([]string, 0)
	for _, n := range numbers {
		if keep[n] {
			continue
		}
		file := s.IssuePath(n)
		if !s.dryRun {
			if err := s.fs.Remove(file); err != nil {
				return removed, fmt.Errorf("remove %s: %w", file, err)
			}
		}
		global.Sugar.Infow("remove closed issue",
			"dry run", s.dryRun,
			"file", file)
		removed = append(removed, file)
	}
	return removed, nil
}
