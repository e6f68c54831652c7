// Package remote 注册 http/https 两种远程 scheme，模块经网络抓取后写入磁盘缓存。
package remote

import "github.com/yasumu-org/tanxium/internal/scheme"

func init() {
	scheme.MustRegister(scheme.Metadata{
		Key:         "http",
		Description: "Plain HTTP modules, fetched once and served from the module cache afterwards",
		Prefixes:    []string{"http://"},
		Remote:      true,
	})
	scheme.MustRegister(scheme.Metadata{
		Key:         "https",
		Description: "HTTPS modules, fetched once and served from the module cache afterwards",
		Prefixes:    []string{"https://"},
		Remote:      true,
	})
}
