// pusher 包将本地 issue 文件中记录的 state 推送至 GitHub
// 不与远程的实际状态做比较，每次都会重新设置
package pusher

import (
	"context"
	"fmt"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/model"
	"github.com/jt196/github-issue-sync/store"
	"github.com/jt196/github-issue-sync/tools"
)

// StateSetter 修改远程 issue 的状态
type StateSetter interface {
	SetState(ctx context.Context, number int, state string) error
}

// Stats 推送结果
type Stats struct {
	Pushed  int
	Skipped int
	Failed  int
}

// Pusher 读取输出目录中的 issue 文件，推送 state
type Pusher struct {
	store  *store.Store
	remote StateSetter
	dryRun bool
}

// New 创建 Pusher
func New(s *store.Store, remote StateSetter, dryRun bool) *Pusher {
	return &Pusher{store: s, remote: remote, dryRun: dryRun}
}

// Push 处理所有 issue 文件
// 单个文件失败只记录警告，继续处理下一个
func (p *Pusher) Push(ctx context.Context) (Stats, error) {
	stats := Stats{}
	numbers, err := p.store.IssueNumbers()
	if err != nil {
		return stats, fmt.Errorf("list issue files: %w", err)
	}

	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		state, err := p.state(n)
		if err != nil {
			stats.Skipped++
			global.Sugar.Warnw("push state",
				"file", p.store.IssuePath(n),
				"skip", err.Error())
			continue
		}

		if p.dryRun {
			global.Sugar.Infow("push state",
				"dry run", true,
				"issue", n,
				"state", state)
			stats.Pushed++
			continue
		}

		if err := p.remote.SetState(ctx, n, state); err != nil {
			stats.Failed++
			global.Sugar.Warnw("push state",
				"issue", n,
				"state", state,
				"err", err.Error())
			continue
		}
		stats.Pushed++
		global.Sugar.Infow("push state",
			"issue", n,
			"state", state)
	}
	return stats, nil
}

// state 读取文件中记录的 state
func (p *Pusher) state(number int) (string, error) {
	content, err := p.store.ReadIssue(number)
	if err != nil {
		return "", err
	}
	meta, err := tools.Parse.Metadata(content)
	if err != nil {
		return "", err
	}
	if meta.Number != 0 && meta.Number != number {
		return "", fmt.Errorf("metadata number %d does not match file", meta.Number)
	}
	state := model.NormalizeState(meta.State)
	if !model.ValidState(state) {
		return "", fmt.Errorf("unknown state %q", meta.State)
	}
	return state, nil
}
