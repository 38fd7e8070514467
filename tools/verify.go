package tools

import (
	"net/url"
	"strings"
)

// ImageHost
// 判断 URL 的 host 是否为 hosts 中的某个域名，或者其子域名
// 例如 hosts 包含 githubusercontent.com 时，user-images.githubusercontent.com 也符合
func (v verifyFunctions) ImageHost(rawURL string, hosts []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
