package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jt196/github-issue-sync/global"
)

// job
// 每天在 sync_at 指定的时刻（本地时间，格式 15:04）执行一次完整同步
// webhook 只会同步单个 issue，定时同步负责更新索引，以及补上遗漏的事件
func (s *Server) job(ctx context.Context) {
	if s.conf.SyncAt == "" {
		return
	}
	for {
		wait, err := untilNext(time.Now(), s.conf.SyncAt)
		if err != nil {
			global.Sugar.Errorw("parse sync time",
				"status", "fail",
				"err", err.Error())
			return
		}
		global.Sugar.Infow("waiting for next sync",
			"sleep", wait.String())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.background("scheduled sync", s.syncer.Sync)
	}
}

// untilNext 距离下一次 at 时刻的时长，今天已过则等到明天的这个时刻
func untilNext(now time.Time, at string) (time.Duration, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", now.Format("2006-01-02 ")+at, now.Location())
	if err != nil {
		return 0, fmt.Errorf("invalid sync time %q: %w", at, err)
	}
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t.Sub(now), nil
}
