package module

import (
	"errors"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Specifier 是经过归一化的绝对模块标识（file:// 或 http(s):// URL），构造后不可变。
type Specifier struct {
	u *url.URL
}

// ParseSpecifier 解析一个绝对 URL 并归一化其路径；相对或缺少 scheme 的输入返回错误。
func ParseSpecifier(raw string) (Specifier, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Specifier{}, err
	}
	if parsed.Scheme == "" {
		return Specifier{}, errors.New("specifier must be absolute")
	}
	return newSpecifier(parsed), nil
}

// FileSpecifier 将本地绝对路径转换为 file:// 规范形式。
func FileSpecifier(p string) (Specifier, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Specifier{}, err
	}
	return newSpecifier(&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}), nil
}

// FromURL 复制 u 并归一化，调用方后续修改 u 不会影响返回值。
func FromURL(u *url.URL) Specifier {
	clone := *u
	return newSpecifier(&clone)
}

func newSpecifier(u *url.URL) Specifier {
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path != "" {
		cleaned := path.Clean(u.Path)
		if strings.HasSuffix(u.Path, "/") && cleaned != "/" {
			cleaned += "/"
		}
		u.Path = cleaned
		u.RawPath = ""
	}
	if u.Scheme == "file" {
		u.Host = ""
		u.RawQuery = ""
	}
	u.Fragment = ""
	return Specifier{u: u}
}

// IsZero 报告 Specifier 是否尚未初始化。
func (s Specifier) IsZero() bool {
	return s.u == nil
}

// String 返回归一化后的 URL 字符串，也是缓存哈希的输入。
func (s Specifier) String() string {
	if s.u == nil {
		return ""
	}
	return s.u.String()
}

// URL 返回内部 URL 的副本。
func (s Specifier) URL() *url.URL {
	if s.u == nil {
		return nil
	}
	clone := *s.u
	return &clone
}

// Scheme 返回小写 scheme。
func (s Specifier) Scheme() string {
	if s.u == nil {
		return ""
	}
	return s.u.Scheme
}

// IsFile 报告是否为本地文件 URL。
func (s Specifier) IsFile() bool {
	return s.Scheme() == "file"
}

// FilePath 返回 file:// 对应的本地路径；非文件 URL 返回空串。
func (s Specifier) FilePath() string {
	if !s.IsFile() {
		return ""
	}
	return filepath.FromSlash(s.u.Path)
}

// Ext 返回路径部分的小写扩展名（含点）。
func (s Specifier) Ext() string {
	if s.u == nil {
		return ""
	}
	return strings.ToLower(path.Ext(s.u.Path))
}

// Equal 以归一化后的形式比较两个 Specifier。
func (s Specifier) Equal(other Specifier) bool {
	return s.String() == other.String()
}
