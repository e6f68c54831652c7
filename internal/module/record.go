package module

import "strings"

// Provenance 描述模块源码的来源。
type Provenance string

const (
	FromFilesystem Provenance = "filesystem"
	FromNetwork    Provenance = "network"
	FromCache      Provenance = "cache"
)

// FetchResult 是一次抓取的原始产物，只在单次加载中存活。
type FetchResult struct {
	Data        []byte
	ContentType string
	Provenance  Provenance
}

// Kind 是交给引擎的模块类型。
type Kind struct {
	name string
}

var (
	KindScript = Kind{name: "script"}
	KindJSON   = Kind{name: "json"}
)

// KindOther 构造由 import attributes 声明的自定义模块类型，例如 "text"。
func KindOther(name string) Kind {
	return Kind{name: "other:" + strings.ToLower(strings.TrimSpace(name))}
}

func (k Kind) String() string {
	return k.name
}

// OtherName 返回 other 类型的名称；非 other 类型返回空串。
func (k Kind) OtherName() string {
	name, ok := strings.CutPrefix(k.name, "other:")
	if !ok {
		return ""
	}
	return name
}

// RequestedType 是 import 语句通过 type attribute 声明的期望类型。空值表示 JavaScript。
type RequestedType string

const (
	RequestJavaScript RequestedType = ""
	RequestJSON       RequestedType = "json"
)

// ParseRequestedType 归一化 attribute 值，"javascript"/"js" 视为默认类型。
func ParseRequestedType(raw string) RequestedType {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "", "js", "javascript":
		return RequestJavaScript
	default:
		return RequestedType(v)
	}
}

// IsOther 报告是否声明了既非 JavaScript 也非 JSON 的类型。
func (t RequestedType) IsOther() bool {
	return t != RequestJavaScript && t != RequestJSON
}

func (t RequestedType) String() string {
	if t == RequestJavaScript {
		return "javascript"
	}
	return string(t)
}

// Record 是最终交付给引擎的模块产物，交付后协调器不再持有。
type Record struct {
	Specifier  Specifier
	Kind       Kind
	Source     []byte
	Provenance Provenance
}

// Request 对应引擎的一次 load 调用。
type Request struct {
	Specifier     Specifier
	Referrer      *Specifier
	RequestedType RequestedType
}
