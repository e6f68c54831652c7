package engine

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/dop251/goja"

	"github.com/yasumu-org/tanxium/internal/module"
)

const (
	wrapperHead = "(function (exports, require, module, __filename, __dirname) {"
	wrapperTail = "\n})"
)

// instantiate 求值节点并返回其 module.exports。正在求值中的节点（循环依赖）直接返回当前导出。
func (e *Engine) instantiate(n *node) (goja.Value, error) {
	if n == nil {
		return nil, errors.New("module graph is missing its entry")
	}
	if n.err != nil {
		return nil, n.err
	}
	if n.module != nil {
		return n.module.Get("exports"), nil
	}

	mod := e.vm.NewObject()
	switch {
	case n.native != "":
		exports, err := e.native.Require(n.native)
		if err != nil {
			n.err = err
			return nil, err
		}
		_ = mod.Set("exports", exports)
		n.module = mod
		return exports, nil

	case n.record.Kind == module.KindJSON:
		value, err := e.parseJSON(string(n.record.Source))
		if err != nil {
			n.err = fmt.Errorf("parse json module %s: %w", n.spec, err)
			return nil, n.err
		}
		_ = mod.Set("exports", value)
		n.module = mod
		return value, nil

	case n.record.Kind != module.KindScript:
		value := e.vm.ToValue(string(n.record.Source))
		_ = mod.Set("exports", value)
		n.module = mod
		return value, nil
	}

	fn, err := e.compile(n)
	if err != nil {
		n.err = err
		return nil, err
	}
	exports := e.vm.NewObject()
	_ = mod.Set("exports", exports)
	n.module = mod

	filename, dirname := locate(n.spec)
	_, err = fn(goja.Undefined(), exports, e.requireFor(n), mod, e.vm.ToValue(filename), e.vm.ToValue(dirname))
	if err != nil {
		n.err = err
		return nil, err
	}
	return mod.Get("exports"), nil
}

func (e *Engine) compile(n *node) (goja.Callable, error) {
	prg, err := goja.Compile(n.spec.String(), wrapperHead+n.code+wrapperTail, false)
	if err != nil {
		return nil, module.NewError(module.KindTranspile, n.spec.String(), err)
	}
	value, err := e.vm.RunProgram(prg)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(value)
	if !ok {
		return nil, fmt.Errorf("module wrapper for %s is not callable", n.spec)
	}
	return fn, nil
}

// requireFor 返回模块私有的 require，只能取到建图阶段发现的依赖。
// 建图时解析或加载失败的依赖在这里以 JS 异常抛出。
func (e *Engine) requireFor(n *node) goja.Value {
	return e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		raw := call.Argument(0).String()
		if err, ok := n.missing[raw]; ok {
			e.throw(err)
		}
		key, ok := n.deps[raw]
		dep := e.modules[key]
		if !ok || dep == nil {
			panic(e.vm.NewTypeError("Cannot find module '%s' from '%s'", raw, n.spec))
		}
		exports, err := e.instantiate(dep)
		if err != nil {
			e.throw(err)
		}
		return exports
	})
}

// throw 以 JS 异常的形式抛出 err，已是 JS 异常时保留原值。
func (e *Engine) throw(err error) {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		panic(exc)
	}
	panic(e.vm.NewGoError(err))
}

func (e *Engine) parseJSON(text string) (goja.Value, error) {
	parse, ok := goja.AssertFunction(e.vm.Get("JSON").ToObject(e.vm).Get("parse"))
	if !ok {
		return nil, errors.New("JSON.parse is unavailable")
	}
	return parse(goja.Undefined(), e.vm.ToValue(text))
}

func locate(spec module.Specifier) (string, string) {
	if spec.IsFile() {
		p := spec.FilePath()
		return p, filepath.Dir(p)
	}
	u := spec.URL()
	dir := *u
	dir.Path = path.Dir(u.Path)
	return spec.String(), dir.String()
}
