package transpile

import (
	"fmt"
	"strings"
)

// Transpiler 去除 TypeScript 类型并输出 JavaScript，不做类型检查。实现需可并发调用。
type Transpiler interface {
	Transpile(specifier, source string, syntax Syntax) (string, error)
}

// Backend 标识转译实现。
type Backend string

const (
	BackendEsbuild Backend = "esbuild"
	BackendTSC     Backend = "tsc"
)

// Options 控制转译器的构造。
type Options struct {
	Backend         Backend
	InlineSourceMap bool
}

// New 按 Backend 构造转译器，空值使用 esbuild。
func New(opts Options) (Transpiler, error) {
	switch Backend(strings.ToLower(string(opts.Backend))) {
	case "", BackendEsbuild:
		return &esbuildTranspiler{inlineSourceMap: opts.InlineSourceMap}, nil
	case BackendTSC:
		return &tscTranspiler{inlineSourceMap: opts.InlineSourceMap}, nil
	default:
		return nil, fmt.Errorf("unknown transpiler backend %q", opts.Backend)
	}
}
