package transpile

import (
	"context"
	"strings"

	typescript "github.com/clarkmcc/go-typescript"

	"github.com/yasumu-org/tanxium/internal/module"
)

// tscTranspiler 在独立的 goja 运行时中执行官方 TypeScript 编译器的 transpileModule。
type tscTranspiler struct {
	inlineSourceMap bool
}

func (t *tscTranspiler) Transpile(specifier, source string, syntax Syntax) (string, error) {
	compileOptions := map[string]interface{}{
		"module":                  "esnext",
		"target":                  "es2017",
		"inlineSourceMap":         t.inlineSourceMap,
		"isolatedModules":         true,
		"useDefineForClassFields": true,
	}
	if syntax == SyntaxTSX || syntax == SyntaxJSX {
		compileOptions["jsx"] = "react"
	}

	out, err := typescript.TranspileCtx(
		context.Background(),
		strings.NewReader(source),
		typescript.WithPreventCancellation(),
		typescript.WithCompileOptions(compileOptions),
	)
	if err != nil {
		return "", module.NewError(module.KindTranspile, specifier, err)
	}
	return out, nil
}
