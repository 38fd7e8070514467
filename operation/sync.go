package operation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/images"
	"github.com/jt196/github-issue-sync/model"
	"github.com/jt196/github-issue-sync/pusher"
	"github.com/jt196/github-issue-sync/render"
	"github.com/jt196/github-issue-sync/source"
	"github.com/jt196/github-issue-sync/store"
)

// Stats 一次同步的统计信息
type Stats struct {
	Total     int
	Written   int
	Unchanged int
	Removed   int
	// 索引文件是否（将要）被写入
	IndexWritten bool
	Images       images.Stats
	// 开启 push_state 时才有值
	Push *pusher.Stats
	// 单个 issue 处理失败的信息，不影响其它 issue
	Errors []string
}

// Syncer 完成一次完整的同步
// 获取 issue -> 处理图片 -> 渲染 -> 写入，最后生成索引
type Syncer struct {
	conf  *config.Config
	src   source.Source
	fs    afero.Fs
	dl    images.Downloader
	store *store.Store

	// 同步可以通过命令行或者 webhook 多种方式触发
	// 这里加一个锁，避免同时写入同一批文件
	lock sync.Mutex

	now func() time.Time
}

// NewSyncer 创建 Syncer
func NewSyncer(conf *config.Config, src source.Source, fs afero.Fs, dl images.Downloader) *Syncer {
	return &Syncer{
		conf:  conf,
		src:   src,
		fs:    fs,
		dl:    dl,
		store: store.New(fs, conf.OutputDir, conf.IndexFile, conf.DryRun),
		now:   time.Now,
	}
}

// Sync 根据配置同步全部 issue，或者 conf.Issue 指定的单个 issue
// 只有获取 issue 列表失败时返回 error
func (s *Syncer) Sync(ctx context.Context) (Stats, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	stats := Stats{Errors: make([]string, 0)}

	// 先推送本地的修改，再拉取
	if s.conf.PushState {
		ps, err := pusher.New(s.store, s.src, s.conf.DryRun).Push(ctx)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("push state: %s", err.Error()))
		}
		stats.Push = &ps
	}

	if s.conf.Issue > 0 {
		return s.syncOne(ctx, s.conf.Issue, stats)
	}

	fetcher := source.NewFetcher(s.src, s.conf)
	issues, err := fetcher.FetchAll(ctx)
	if err != nil {
		global.Sugar.Errorw("fetch issues",
			"repository", s.conf.Repository,
			"err", err.Error())
		return stats, err
	}
	stats.Total = len(issues)

	syncedAt := s.now()
	loc := images.New(s.fs, s.dl, s.conf)
	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s.process(ctx, loc, issue, syncedAt, &stats)
	}
	stats.Images = loc.Stats()

	// 只同步 open 的 issue 时，移除已经关闭的 issue 文件
	if !s.conf.SyncClosed {
		keep := make(map[int]bool, len(issues))
		for _, is := range issues {
			keep[is.Number] = true
		}
		removed, err := s.store.RemoveStale(keep)
		stats.Removed = len(removed)
		if err != nil {
			global.Sugar.Warnw("remove closed issues",
				"err", err.Error())
			stats.Errors = append(stats.Errors, err.Error())
		}
	}

	content, hash := render.Index(issues, render.IndexOptions{
		Repository: s.conf.Repository,
		OutputDir:  s.conf.OutputDir,
		ImagesDir:  s.conf.ImagesDir(),
		IndexFile:  s.conf.IndexFile,
		SyncedAt:   syncedAt,
	})
	result, err := s.store.WriteIndex(content, hash)
	if err != nil {
		global.Sugar.Warnw("write index",
			"err", err.Error())
		stats.Errors = append(stats.Errors, err.Error())
	}
	stats.IndexWritten = result.Changed() && err == nil

	global.Sugar.Infow("sync issues",
		"repository", s.conf.Repository,
		"total", stats.Total,
		"written", stats.Written,
		"unchanged", stats.Unchanged,
		"removed", stats.Removed,
		"errors", len(stats.Errors))
	return stats, nil
}

// SyncIssue 只同步单个 issue，不更新索引，也不移除任何文件
func (s *Syncer) SyncIssue(ctx context.Context, number int) (Stats, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.syncOne(ctx, number, Stats{Errors: make([]string, 0)})
}

func (s *Syncer) syncOne(ctx context.Context, number int, stats Stats) (Stats, error) {
	issue, err := source.NewFetcher(s.src, s.conf).FetchOne(ctx, number)
	if err != nil {
		global.Sugar.Errorw("fetch issue",
			"issue", number,
			"err", err.Error())
		return stats, err
	}
	stats.Total = 1

	loc := images.New(s.fs, s.dl, s.conf)
	s.process(ctx, loc, issue, s.now(), &stats)
	stats.Images = loc.Stats()
	return stats, nil
}

// process 处理单个 issue，失败时记录在 stats 中
func (s *Syncer) process(ctx context.Context, loc *images.Localizer, issue model.Issue, syncedAt time.Time, stats *Stats) {
	session := loc.Session(issue.Number)
	body := session.Rewrite(ctx, issue.Body)
	comments := make([]string, 0, len(issue.Comments))
	for _, c := range issue.Comments {
		comments = append(comments, session.Rewrite(ctx, c.Body))
	}

	hash := render.ContentHash(issue, body, comments)
	content := render.Issue(issue, body, comments, hash, syncedAt)

	result, err := s.store.WriteIssue(issue.Number, content, hash)
	if err != nil {
		global.Sugar.Warnw("process issue",
			"issue", issue.Number,
			"err", err.Error())
		stats.Errors = append(stats.Errors, fmt.Sprintf("issue #%d: %s", issue.Number, err.Error()))
		return
	}
	if result.Changed() {
		stats.Written++
	} else {
		stats.Unchanged++
	}
}
