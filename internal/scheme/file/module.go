// Package file 注册本地文件 scheme，覆盖 file:// URL 与磁盘路径。
package file

import "github.com/yasumu-org/tanxium/internal/scheme"

func init() {
	scheme.MustRegister(scheme.Metadata{
		Key:         "file",
		Description: "Local filesystem modules, read on every load and never cached",
		Prefixes:    []string{"file://"},
	})
}
