package config

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var supportedTranspilers = map[string]struct{}{
	"esbuild": {},
	"tsc":     {},
}

// Validate 针对语义级别做进一步校验，防止非法配置启动运行时。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("LogLevel", "不支持的日志级别 "+g.LogLevel)
	}
	if g.LogMaxSize < 0 {
		return newFieldError("LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("LogMaxBackups", "不能为负数")
	}

	l := c.Loader
	if l.FetchTimeout.DurationValue() <= 0 {
		return newFieldError("FetchTimeout", "必须大于 0")
	}
	if _, ok := supportedTranspilers[strings.ToLower(l.Transpiler)]; !ok {
		return newFieldError("Transpiler", "仅支持 esbuild|tsc")
	}
	cdn, err := url.Parse(l.NpmCDN)
	if err != nil || (cdn.Scheme != "http" && cdn.Scheme != "https") || cdn.Host == "" {
		return newFieldError("NpmCDN", "必须是 http(s) 绝对地址")
	}

	if !identifierPattern.MatchString(c.Runtime.GlobalObjectName) {
		return newFieldError("GlobalObjectName", "必须是合法的 JavaScript 标识符")
	}
	for _, ext := range c.Runtime.Extensions {
		if strings.TrimSpace(ext) == "" {
			return newFieldError("Extensions[]", "不能为空")
		}
	}
	return nil
}
