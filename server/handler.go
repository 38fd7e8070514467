package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/go-playground/webhooks.v5/github"

	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/operation"
)

// webhook 处理 issues 以及 issue_comment 事件
// 只同步事件对应的单个 issue，索引在下一次完整同步时更新
func (s *Server) webhook(c *gin.Context) {
	payload, err := s.hook.Parse(c.Request, s.events...)
	if err != nil {
		if err == github.ErrEventNotFound {
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		global.Sugar.Warnw("parse webhook",
			"event", c.GetHeader("X-GitHub-Event"),
			"err", err.Error())
		status := http.StatusBadRequest
		if err == github.ErrHMACVerificationFailed || err == github.ErrMissingHubSignatureHeader {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	var (
		number int
		repo   string
		action string
	)
	switch p := payload.(type) {
	case github.PingPayload:
		c.JSON(http.StatusOK, gin.H{"status": "pong"})
		return
	case github.IssuesPayload:
		number, repo, action = int(p.Issue.Number), p.Repository.FullName, p.Action
	case github.IssueCommentPayload:
		number, repo, action = int(p.Issue.Number), p.Repository.FullName, p.Action
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	// 不处理其它仓库的事件
	if !strings.EqualFold(repo, s.conf.Repository) {
		global.Sugar.Debugw("ignore webhook",
			"repository", repo)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	// 已删除的 issue 无法再获取
	if action == "deleted" && c.GetHeader("X-GitHub-Event") == string(github.IssuesEvent) {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	global.Sugar.Infow("webhook",
		"event", c.GetHeader("X-GitHub-Event"),
		"action", action,
		"issue", number)
	// GitHub 只等待 10 秒，先响应再同步
	s.background("webhook sync", func(ctx context.Context) (operation.Stats, error) {
		return s.syncer.SyncIssue(ctx, number)
	})
	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
		"issue":  number,
	})
}

// sync 手动触发一次完整同步，在后台执行
func (s *Server) sync(c *gin.Context) {
	s.background("manual sync", s.syncer.Sync)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
