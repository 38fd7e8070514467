package images

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/spf13/afero"

	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/tools"
)

// 匹配 markdown 图片，以及 HTML <img> 标签
// 分组 1: markdown alt，分组 2: markdown url，分组 3: <img> src
var imageRegex = regexp.MustCompile(`(?i)!\[([^\]]*)\]\(([^)]+)\)|<img[^>]+src=["']([^"']+)["'][^>]*>`)

const defaultAlt = "Image"

// Stats 图片处理统计
type Stats struct {
	// 本次实际下载的图片
	Downloaded int
	// 本地已存在，跳过下载
	Skipped int
	// 重试后仍然失败，保留了原始链接
	Failed int
}

// Localizer 下载图片并改写链接
// 图片目录只会新增以 issue number 区分的文件，不需要加锁
type Localizer struct {
	fs   afero.Fs
	dl   Downloader
	conf *config.Config

	// 重试时的通知，测试中用于记录等待时间
	notify backoff.Notify

	stats Stats
}

// New 创建 Localizer
func New(fs afero.Fs, dl Downloader, conf *config.Config) *Localizer {
	return &Localizer{fs: fs, dl: dl, conf: conf}
}

// Stats 返回累计的统计信息
func (l *Localizer) Stats() Stats {
	return l.stats
}

// Session 为一个 issue 开始一次处理
// 同一个 Session 中，图片序号在 body 以及所有评论之间连续递增，保证文件名不重复
func (l *Localizer) Session(number int) *Session {
	return &Session{l: l, number: number}
}

// Session 单个 issue 的图片处理过程
type Session struct {
	l      *Localizer
	number int
	index  int
}

// reference 文本中的一个图片引用
type reference struct {
	start, end int
	url        string
	alt        string
}

// find 按出现顺序找出所有图片引用
func find(text string) []reference {
	refs := make([]reference, 0)
	for _, m := range imageRegex.FindAllStringSubmatchIndex(text, -1) {
		ref := reference{start: m[0], end: m[1]}
		switch {
		case m[4] >= 0:
			// markdown 中 url 后面可能跟着 title
			fields := strings.Fields(text[m[4]:m[5]])
			if len(fields) == 0 {
				continue
			}
			ref.url = strings.Trim(fields[0], "<>")
			ref.alt = strings.TrimSpace(text[m[2]:m[3]])
		case m[6] >= 0:
			ref.url = strings.TrimSpace(text[m[6]:m[7]])
		default:
			continue
		}
		if ref.alt == "" {
			ref.alt = defaultAlt
		}
		refs = append(refs, ref)
	}
	return refs
}

// Rewrite 处理一段文本，返回改写后的内容
// 非 GitHub 的图片原样保留，下载失败的图片保留原始链接
func (s *Session) Rewrite(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}
	refs := find(text)
	if len(refs) == 0 {
		return text
	}

	b := strings.Builder{}
	last := 0
	for _, ref := range refs {
		if !tools.Verify.ImageHost(ref.url, s.l.conf.ImageHosts) {
			continue
		}
		s.index++
		name := s.name(ref.url)

		if err := s.l.fetch(ctx, ref.url, name); err != nil {
			s.l.stats.Failed++
			global.Sugar.Warnw("download image",
				"issue", s.number,
				"url", ref.url,
				"err", err.Error())
			continue
		}

		b.WriteString(text[last:ref.start])
		b.WriteString(fmt.Sprintf("![%s](%s)", ref.alt, path.Join(s.l.conf.ImagesRelDir(), name)))
		last = ref.end
	}
	b.WriteString(text[last:])
	return b.String()
}

func (s *Session) name(url string) string {
	if s.l.conf.ImageNaming == config.NamingURL {
		return tools.Generate.ImageNameByURL(url, s.number)
	}
	return tools.Generate.ImageName(url, s.number, s.index)
}

// fetch 下载图片到图片目录
// 文件已存在且非空时跳过，除非设置了 force
func (l *Localizer) fetch(ctx context.Context, url, name string) error {
	dir := l.conf.ImagesDir()
	file := filepath.Join(dir, name)

	if !l.conf.ForceImages {
		if info, err := l.fs.Stat(file); err == nil && info.Size() > 0 {
			l.stats.Skipped++
			global.Sugar.Debugw("skip existing image",
				"file", file)
			return nil
		}
	}
	if l.conf.DryRun {
		global.Sugar.Infow("download image",
			"dry run", true,
			"url", url,
			"file", file)
		return nil
	}
	if err := l.fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	retries := l.conf.ImageRetries
	if retries < 1 {
		retries = 1
	}
	initial := l.conf.ImageBackoff
	if initial <= 0 {
		initial = time.Second
	}
	policy := &backoff.ExponentialBackOff{
		InitialInterval:     initial,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         initial << uint(retries),
	}

	// 先写入临时文件，成功后再替换，强制刷新失败时保留原来的图片
	tmp := file + ".part"
	size, err := backoff.Retry(ctx, func() (int, error) {
		data, err := l.dl.Download(ctx, url)
		if err == nil && len(data) == 0 {
			err = ErrEmpty
		}
		if err == nil {
			err = afero.WriteFile(l.fs, tmp, data, 0644)
		}
		if err == nil {
			err = l.fs.Rename(tmp, file)
		}
		if err != nil {
			if rmErr := l.fs.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
				global.Sugar.Warnw("remove failed image",
					"file", tmp,
					"err", rmErr.Error())
			}
			return 0, err
		}
		return len(data), nil
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(retries)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			global.Sugar.Debugw("retry image download",
				"url", url,
				"after", next.String(),
				"err", err.Error())
			if l.notify != nil {
				l.notify(err, next)
			}
		}),
	)
	if err != nil {
		// 强制刷新失败，继续使用已有的图片
		if info, statErr := l.fs.Stat(file); statErr == nil && info.Size() > 0 {
			l.stats.Skipped++
			global.Sugar.Warnw("refresh image",
				"url", url,
				"file", file,
				"err", err.Error())
			return nil
		}
		return fmt.Errorf("failed after %d attempts: %w", retries, err)
	}

	l.stats.Downloaded++
	global.Sugar.Infow("download image",
		"url", url,
		"file", file,
		"bytes", size)
	return nil
}
