// Package npm 注册 npm: 包别名，别名在解析阶段被改写为 CDN 上的 ESM 构建地址。
package npm

import (
	"strings"

	"github.com/yasumu-org/tanxium/internal/scheme"
)

// DefaultCDN 为未配置 NpmCDN 时使用的包 CDN 前缀。
const DefaultCDN = "https://cdn.jsdelivr.net/npm/"

const prefix = "npm:"

func init() {
	scheme.MustRegister(scheme.Metadata{
		Key:         "npm",
		Description: "npm package aliases served as ESM bundles by a package CDN",
		Prefixes:    []string{prefix},
		Remote:      true,
		Alias:       true,
		Rewrite:     Rewrite,
	})
}

// Rewrite 将 npm:<pkg>[@ver][/sub] 改写为 <cdn><pkg>[@ver][/sub]/+esm。
func Rewrite(raw string, cdn string) string {
	pkg := raw
	if len(pkg) >= len(prefix) && strings.EqualFold(pkg[:len(prefix)], prefix) {
		pkg = pkg[len(prefix):]
	}
	pkg = strings.TrimLeft(pkg, "/")
	if cdn == "" {
		cdn = DefaultCDN
	}
	if !strings.HasSuffix(cdn, "/") {
		cdn += "/"
	}
	return cdn + pkg + "/+esm"
}
