// images 包负责将 issue 中引用的 GitHub 图片下载到本地，并改写图片链接
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrEmpty 下载到的内容为空
var ErrEmpty = errors.New("downloaded file is empty")

// Downloader 下载单个图片
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// HTTPDownloader 下载时在请求上带上 token
// 重定向到其它域名（例如 S3 预签名地址）时不再携带 token
type HTTPDownloader struct {
	client *http.Client
	ts     oauth2.TokenSource
}

// NewHTTPDownloader ts 为 nil 时不带认证
func NewHTTPDownloader(client *http.Client, ts oauth2.TokenSource) *HTTPDownloader {
	return &HTTPDownloader{client: client, ts: ts}
}

// Download 跟随重定向，只接受 200 响应
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream")
	if d.ts != nil {
		token, err := d.ts.Token()
		if err != nil {
			return nil, fmt.Errorf("get token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}
