package version

import "fmt"

// Version/Commit 可在构建时通过 -ldflags 注入，默认使用开发占位符。
var (
	Version = "0.1.0"
	Commit  = "dev"
)

// Name 是运行时对外呈现的名称，用于 User-Agent 与 CLI 输出。
const Name = "tanxium"

// Full 返回便于 CLI 打印的完整版本信息。
func Full() string {
	return fmt.Sprintf("%s %s (%s)", Name, Version, Commit)
}

// UserAgent 返回抓取远程模块时使用的 User-Agent。
func UserAgent() string {
	return Name + "/" + Version
}
