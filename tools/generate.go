package tools

import (
	"fmt"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// 默认图片后缀，GitHub 附件地址一般没有后缀
const defaultImageExt = "png"

// ImageExt
// 从 URL 中提取图片后缀，去除 query 参数
// 后缀长度不超过 4 且只包含字母数字时才采用，否则使用 png
func (g generateFunctions) ImageExt(rawURL string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	last := path.Base(p)
	i := strings.LastIndex(last, ".")
	if i < 0 {
		return defaultImageExt
	}
	ext := strings.ToLower(last[i+1:])
	if ext == "" || len(ext) > 4 {
		return defaultImageExt
	}
	for _, r := range ext {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return defaultImageExt
		}
	}
	return ext
}

// ImageName
// 根据 issue number 以及图片在 issue 中出现的位置（从 1 开始），生成本地文件名
// 例如：issue-42-1.png
func (g generateFunctions) ImageName(rawURL string, number, index int) string {
	return fmt.Sprintf("issue-%d-%d.%s", number, index, g.ImageExt(rawURL))
}

// ImageNameByURL
// 根据图片 URL 的 hash 生成本地文件名，与图片出现的位置无关
// 例如：issue-42-1a2b3c4d.png
func (g generateFunctions) ImageNameByURL(rawURL string, number int) string {
	return fmt.Sprintf("issue-%d-%08x.%s", number, uint32(xxhash.Sum64String(rawURL)), g.ImageExt(rawURL))
}

// Hash
// 16 位十六进制的内容 hash
func (g generateFunctions) Hash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// IssueURL
// issue 在 GitHub 上的地址
func (g generateFunctions) IssueURL(repo string, number int) string {
	return fmt.Sprintf("https://github.com/%s/issues/%d", repo, number)
}

// IssueFile
// issue 对应的本地文件名
func (g generateFunctions) IssueFile(number int) string {
	return fmt.Sprintf("%d.md", number)
}
