// tools 包提供同步过程中用到的纯函数，按用途分组，调用方式为 tools.<group>.Method()
//   - Parse: 解析 git remote、issue 文件页脚中的元数据与内容 hash
//   - Verify: 判断图片是否托管在 GitHub 上
//   - Convert: 标签、指派人列表的去重、排序与拼接
//   - Generate: 图片文件名、内容 hash、issue 链接与文件名
package tools

var (
	Convert  convertFunctions
	Verify   verifyFunctions
	Parse    parseFunctions
	Generate generateFunctions
)

type (
	// git remote、文件页脚
	parseFunctions byte

	// 图片域名
	verifyFunctions byte

	// 列表去重、排序
	convertFunctions byte

	// 文件名、hash、链接
	generateFunctions byte
)
