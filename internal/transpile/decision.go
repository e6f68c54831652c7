package transpile

import (
	"strings"

	"github.com/yasumu-org/tanxium/internal/module"
)

// Syntax 选择转译器的源码语法。
type Syntax string

const (
	SyntaxTS  Syntax = "ts"
	SyntaxTSX Syntax = "tsx"
	SyntaxJSX Syntax = "jsx"
)

// RemoteTypeScriptContentType 是远程模块被视为 TypeScript 的唯一 Content-Type。
const RemoteTypeScriptContentType = "application/typescript"

// typeScriptExtensions 是需要转译的本地扩展名集合，按字面匹配。
var typeScriptExtensions = map[string]Syntax{
	".ts":   SyntaxTS,
	".cts":  SyntaxTS,
	".mts":  SyntaxTS,
	".tsx":  SyntaxTSX,
	".ctsx": SyntaxTSX,
	".mtsx": SyntaxTSX,
	".jsx":  SyntaxJSX,
}

// NeedsTranspile 判断模块是否需要去除类型。本地模块只看扩展名；
// 远程模块只看 Content-Type（整体忽略大小写精确匹配，带参数的值不算），从不嗅探 URL 扩展名。
func NeedsTranspile(category module.Category, contentType string) bool {
	if category.IsRemote() {
		return isTypeScriptContentType(contentType)
	}
	_, ok := typeScriptExtensions[category.Specifier.Ext()]
	return ok
}

// SyntaxFor 返回转译时使用的语法。远程模块默认 ts，仅当路径为 tsx 家族时改用 tsx。
func SyntaxFor(category module.Category) Syntax {
	syntax, ok := typeScriptExtensions[category.Specifier.Ext()]
	if !ok {
		return SyntaxTS
	}
	if category.IsRemote() && syntax == SyntaxJSX {
		return SyntaxTS
	}
	return syntax
}

// SyntaxForPath 按文件名返回语法，供 CLI 与扩展脚本使用；非 TS 家族返回 false。
func SyntaxForPath(p string) (Syntax, bool) {
	idx := strings.LastIndex(p, ".")
	if idx < 0 {
		return "", false
	}
	syntax, ok := typeScriptExtensions[strings.ToLower(p[idx:])]
	return syntax, ok
}

func isTypeScriptContentType(contentType string) bool {
	return strings.EqualFold(strings.TrimSpace(contentType), RemoteTypeScriptContentType)
}

// KindFor 计算交付给引擎的模块类型。
//
// 远程模块在声明 json 时为 json，否则为 script；本地 .json 为 json；
// 其他本地文件在声明自定义类型时为 other(<name>)，否则为 script。
func KindFor(category module.Category, requested module.RequestedType) module.Kind {
	if category.IsRemote() {
		switch {
		case requested == module.RequestJSON:
			return module.KindJSON
		case requested.IsOther():
			return module.KindOther(string(requested))
		default:
			return module.KindScript
		}
	}
	if category.Specifier.Ext() == ".json" {
		return module.KindJSON
	}
	if requested.IsOther() {
		return module.KindOther(string(requested))
	}
	return module.KindScript
}

// CheckType 校验内容类型与 import 声明是否一致：JSON 内容必须以 json 导入，
// 以 json 导入的本地内容也必须是 JSON。
func CheckType(spec module.Specifier, kind module.Kind, requested module.RequestedType) error {
	if kind == module.KindJSON && requested != module.RequestJSON {
		return module.NewError(module.KindTypeMismatch, spec.String(), nil)
	}
	if kind != module.KindJSON && requested == module.RequestJSON {
		return module.NewError(module.KindTypeMismatch, spec.String(), nil)
	}
	return nil
}
