// client 包，指的是 GitHub 客户端库的初始化和使用。
// 包括 REST API 客户端，以及下载图片使用的 HTTP 客户端。
package client

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/go-github/v30/github"
	"golang.org/x/oauth2"
)

// TokenFunc 获取 token 的方法
// 例如调用 gh auth token
type TokenFunc func() (string, error)

// Token 实现 oauth2.TokenSource
func (f TokenFunc) Token() (*oauth2.Token, error) {
	t, err := f()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: t, TokenType: "Bearer"}, nil
}

// LazyTokenSource 首次请求时才获取 token，之后复用
func LazyTokenSource(f TokenFunc) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, f)
}

// New 初始化 GitHub REST Client
func New(ctx context.Context, token string) *github.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return github.NewClient(tc)
}

// HTTP 初始化下载图片使用的 HTTP Client，不带认证
// token 由调用方设置在请求上，跨域名重定向时 net/http 会去掉 Authorization
func HTTP(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConnsPerHost: 5,
			MaxIdleConns:        5,
			IdleConnTimeout:     60 * time.Second,
			TLSHandshakeTimeout: timeout,
		},
	}
}
