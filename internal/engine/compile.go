package engine

import (
	"regexp"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/yasumu-org/tanxium/internal/module"
	"github.com/yasumu-org/tanxium/internal/transpile"
)

var (
	// import x from "./a.json" with { type: "json" }，同时兼容旧的 assert 语法。
	staticAttributePattern = regexp.MustCompile(`(["'])([^"'\r\n]+)(["'])\s*(?:with|assert)\s*\{\s*type\s*:\s*["']([A-Za-z0-9_-]+)["']\s*,?\s*\}`)
	// import("./a.json", { with: { type: "json" } })
	dynamicAttributePattern = regexp.MustCompile(`import\(\s*(["'])([^"'\r\n]+)(["'])\s*,\s*\{\s*(?:with|assert)\s*:\s*\{\s*type\s*:\s*["']([A-Za-z0-9_-]+)["']\s*,?\s*\}\s*,?\s*\}\s*\)`)
)

// extractAttributes 去掉源码中的 import attributes 并返回 specifier → 声明类型。
func extractAttributes(source string) (string, map[string]module.RequestedType) {
	attrs := make(map[string]module.RequestedType)
	collect := func(pattern *regexp.Regexp, replacement string) {
		for _, m := range pattern.FindAllStringSubmatch(source, -1) {
			attrs[m[2]] = module.ParseRequestedType(m[4])
		}
		source = pattern.ReplaceAllString(source, replacement)
	}
	collect(dynamicAttributePattern, "import(${1}${2}${3})")
	collect(staticAttributePattern, "${1}${2}${3}")
	return source, attrs
}

// lowerModule 把 ES 模块降级为 CommonJS 函数体，goja 只能执行脚本。
func lowerModule(specifier, source string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:     api.LoaderJS,
		Format:     api.FormatCommonJS,
		Target:     api.ES2017,
		Sourcefile: specifier,
		Charset:    api.CharsetUTF8,
		Supported: map[string]bool{
			"bigint": true,
		},
	})
	if err := transpile.FirstError(result.Errors); err != nil {
		return "", module.NewError(module.KindTranspile, specifier, err)
	}
	return string(result.Code), nil
}

// dependency 是模块源码引用的一个 specifier。
// soft 为 true 表示只经 require() 或 import() 引用，目标缺失时在调用处抛出而不是拒绝整个模块图。
type dependency struct {
	raw  string
	soft bool
}

// scanDependencies 用 esbuild 的解析器按出现顺序列出 source 引用的 specifier，
// 字符串与注释中的文本不会被当作依赖。同一 specifier 只要有一处 import/export 语句即为硬依赖。
func scanDependencies(specifier, source string) []dependency {
	var (
		mu    sync.Mutex
		deps  []dependency
		index = make(map[string]int)
	)
	record := func(raw string, soft bool) {
		mu.Lock()
		defer mu.Unlock()
		if i, ok := index[raw]; ok {
			deps[i].soft = deps[i].soft && soft
			return
		}
		index[raw] = len(deps)
		deps = append(deps, dependency{raw: raw, soft: soft})
	}
	collector := api.Plugin{
		Name: "tanxium-dependencies",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				switch args.Kind {
				case api.ResolveEntryPoint:
					return api.OnResolveResult{}, nil
				case api.ResolveJSImportStatement:
					record(args.Path, false)
				case api.ResolveJSRequireCall, api.ResolveJSDynamicImport:
					record(args.Path, true)
				}
				return api.OnResolveResult{Path: args.Path, External: true}, nil
			})
		},
	}
	// 语法错误已由 lowerModule 报告，这里只关心收集到的 specifier。
	api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   source,
			Sourcefile: specifier,
			Loader:     api.LoaderJS,
		},
		Bundle:  true,
		Write:   false,
		Format:  api.FormatCommonJS,
		Target:  api.ES2017,
		Plugins: []api.Plugin{collector},
		Supported: map[string]bool{
			"bigint": true,
		},
	})
	return deps
}
