package transpile

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/yasumu-org/tanxium/internal/module"
)

type esbuildTranspiler struct {
	inlineSourceMap bool
}

func (t *esbuildTranspiler) Transpile(specifier, source string, syntax Syntax) (string, error) {
	loader := api.LoaderTS
	switch syntax {
	case SyntaxTSX:
		loader = api.LoaderTSX
	case SyntaxJSX:
		loader = api.LoaderJSX
	}

	sourcemap := api.SourceMapNone
	if t.inlineSourceMap {
		sourcemap = api.SourceMapInline
	}

	result := api.Transform(source, api.TransformOptions{
		Loader:     loader,
		Sourcefile: specifier,
		Sourcemap:  sourcemap,
		Target:     api.ESNext,
		Format:     api.FormatDefault,
		Charset:    api.CharsetUTF8,
	})
	if err := FirstError(result.Errors); err != nil {
		return "", module.NewError(module.KindTranspile, specifier, err)
	}
	return string(result.Code), nil
}

// FirstError 将 esbuild 的首个错误格式化为带行列号的错误。
func FirstError(messages []api.Message) error {
	if len(messages) == 0 {
		return nil
	}
	msg := messages[0]
	loc := ""
	if msg.Location != nil {
		loc = fmt.Sprintf(" at line %d, column %d", msg.Location.Line, msg.Location.Column)
	}
	return fmt.Errorf("syntax error%s: %s", loc, msg.Text)
}
