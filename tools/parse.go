package tools

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jt196/github-issue-sync/model"
)

var (
	// issue 文件末尾的元数据，单行
	metadataExp = regexp.MustCompile(`(?m)^<!-- Metadata: (.*) -->$`)
	// issue 文件、索引文件中的内容 hash
	hashExp = regexp.MustCompile(`<!-- Content-Hash: ([a-f0-9]+) -->`)
)

// Repo
// 从 git remote 地址中解析出 owner/repo
// 支持 git@github.com:owner/repo.git 以及 https://github.com/owner/repo(.git)
// 无法解析时返回空字符串
func (p parseFunctions) Repo(remote string) string {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return ""
	}

	var path string
	if strings.HasPrefix(remote, "git@") {
		i := strings.Index(remote, ":")
		if i < 0 {
			return ""
		}
		path = remote[i+1:]
	} else {
		u, err := url.Parse(remote)
		if err != nil || u.Host == "" {
			return ""
		}
		path = strings.TrimPrefix(u.Path, "/")
	}

	path = strings.TrimSuffix(path, ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "/" + parts[1]
}

// last 返回最后一个匹配
// 页脚总在文件末尾，正文和评论里出现的同样格式的内容不算数
func last(exp *regexp.Regexp, content string) []string {
	all := exp.FindAllStringSubmatch(content, -1)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

// Metadata
// 从 issue 文件内容中解析出元数据
// 找不到，或者 JSON 不合法时返回 error
func (p parseFunctions) Metadata(content string) (*model.Metadata, error) {
	m := last(metadataExp, content)
	if m == nil {
		return nil, fmt.Errorf("metadata block not found")
	}
	meta := &model.Metadata{}
	if err := json.Unmarshal([]byte(m[1]), meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return meta, nil
}

// ContentHash
// 从文件内容中解析出内容 hash，没有则返回空字符串
func (p parseFunctions) ContentHash(content string) string {
	m := last(hashExp, content)
	if m == nil {
		return ""
	}
	return m[1]
}
