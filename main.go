// issue-sync 将 GitHub 仓库的 issue（包括评论、图片、子 issue 关系）镜像为本地 markdown 文件，
// 供在仓库内工作的 AI 编程助手直接阅读。
//
//	issue-sync sync            同步所有 issue，并生成索引
//	issue-sync sync --issue 42 仅同步 #42
//	issue-sync push            将本地文件中记录的 state 推送回 GitHub
//	issue-sync plan 42         将计划文件发布为 #42 的评论
//	issue-sync serve           监听 webhook，issue 有变动时自动同步
package main

import "github.com/jt196/github-issue-sync/cmd"

func main() {
	cmd.Execute()
}
