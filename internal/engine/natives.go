package engine

import (
	"strings"

	_ "github.com/dop251/goja_nodejs/buffer"
	_ "github.com/dop251/goja_nodejs/process"
	_ "github.com/dop251/goja_nodejs/url"
	_ "github.com/dop251/goja_nodejs/util"
)

// nativeModuleName 识别 goja_nodejs 提供的内建模块，接受可选的 node: 前缀。
func nativeModuleName(raw string) (string, bool) {
	name := strings.TrimPrefix(raw, "node:")
	switch name {
	case "buffer", "console", "process", "url", "util":
		return name, true
	default:
		return "", false
	}
}
