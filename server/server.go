// server 包对应 serve 子命令
// 启动 HTTP 服务，监听 GitHub 的 Webhook 事件，issue 有变化时同步至本地
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/go-playground/webhooks.v5/github"

	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/operation"
)

// Syncer 同步操作，由 operation.Syncer 实现
type Syncer interface {
	Sync(ctx context.Context) (operation.Stats, error)
	SyncIssue(ctx context.Context, number int) (operation.Stats, error)
}

// Server webhook 服务
type Server struct {
	conf   *config.Config
	syncer Syncer
	hook   *github.Webhook
	// 解析的事件列表
	events []github.Event

	// 同步使用服务自身的 context，请求结束不会中断同步
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// New 创建服务，设置了 webhook_secret 时会校验请求签名
func New(conf *config.Config, syncer Syncer) (*Server, error) {
	options := make([]github.Option, 0)
	if conf.WebhookSecret != "" {
		options = append(options, github.Options.Secret(conf.WebhookSecret))
	}
	hook, err := github.New(options...)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		ctx:    ctx,
		cancel: cancel,
		conf:   conf,
		syncer: syncer,
		hook:   hook,
		events: []github.Event{
			github.IssuesEvent,
			github.IssueCommentEvent,
			github.PingEvent,
		},
	}, nil
}

// Router 定义监听路由
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	v1.POST("/webhooks/", s.webhook)
	v1.GET("/sync", s.sync)
	return router
}

// Start 启动服务，ctx 结束时优雅退出
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.conf.Port,
		Handler: s.Router(),
	}

	// 定时同步
	go s.job(ctx)

	errs := make(chan error, 1)
	go func() {
		global.Sugar.Infow("start server",
			"addr", s.conf.Port,
			"repository", s.conf.Repository)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		s.cancel()
		s.Wait()
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		global.Sugar.Infow("stop server",
			"addr", s.conf.Port)
		err := srv.Shutdown(shutdown)

		// 等待进行中的同步，超时后再中断
		done := make(chan struct{})
		go func() {
			s.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdown.Done():
			global.Sugar.Warnw("stop server",
				"status", "cancel running sync")
			s.cancel()
			<-done
		}
		s.cancel()
		return err
	}
}

// background 在后台执行一次同步，结果只记录日志
func (s *Server) background(name string, fn func(ctx context.Context) (operation.Stats, error)) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		stats, err := fn(s.ctx)
		if err != nil {
			global.Sugar.Warnw(name,
				"status", "fail",
				"err", err.Error())
			return
		}
		global.Sugar.Infow(name,
			"total", stats.Total,
			"written", stats.Written,
			"errors", len(stats.Errors))
	}()
}

// Wait 等待所有后台同步结束
func (s *Server) Wait() {
	s.running.Wait()
}
