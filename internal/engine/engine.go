package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"github.com/sirupsen/logrus"

	"github.com/yasumu-org/tanxium/internal/loader"
	"github.com/yasumu-org/tanxium/internal/logging"
	"github.com/yasumu-org/tanxium/internal/module"
	"github.com/yasumu-org/tanxium/internal/transpile"
)

// ModuleLoader 是引擎依赖的两段式加载契约：同步 Resolve，异步 Load。
type ModuleLoader interface {
	Resolve(raw string, referrer *module.Specifier) (module.Specifier, error)
	Load(ctx context.Context, req module.Request, done *loader.Completion)
}

// Builtins 控制注入到全局对象的内建能力。
type Builtins struct {
	Crypto      bool
	Performance bool
	Runtime     bool
	Console     bool
	Timers      bool
	Base64      bool
}

// DefaultBuiltins 打开全部内建能力。
func DefaultBuiltins() Builtins {
	return Builtins{Crypto: true, Performance: true, Runtime: true, Console: true, Timers: true, Base64: true}
}

// Options 组装引擎。Loader 必填；Transpiler 为 nil 时 TypeScript 入口与 transpileTypeScript 不可用。
type Options struct {
	Loader           ModuleLoader
	Transpiler       transpile.Transpiler
	WorkDir          string
	TypeScript       bool
	GlobalObjectName string
	Builtins         Builtins
	Logger           *logrus.Logger
}

// Engine 持有单个 goja 运行时。goja 不是并发安全的，所有公开方法在互斥锁下串行执行，
// JS 代码只在事件循环上运行。
type Engine struct {
	mu sync.Mutex

	loop       *eventloop.EventLoop
	vm         *goja.Runtime
	native     *require.RequireModule
	loader     ModuleLoader
	transpiler transpile.Transpiler
	logger     *logrus.Logger

	workDir    string
	typeScript bool
	globalName string
	builtins   Builtins

	modules     map[string]*node
	timeOrigin  time.Time
	runtimeData *goja.Object
	rejections  map[*goja.Promise]struct{}
}

// New 创建事件循环与运行时并安装内建对象。
func New(opts Options) (*Engine, error) {
	if opts.Loader == nil {
		return nil, errors.New("engine requires a module loader")
	}
	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve work dir: %w", err)
		}
		workDir = wd
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}
	globalName := opts.GlobalObjectName
	if globalName == "" {
		globalName = "Tanxium"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	// 本地与远程模块只经由 Loader 加载，require 注册表只提供内建模块。
	registry := require.NewRegistry(require.WithLoader(func(string) ([]byte, error) {
		return nil, require.ModuleFileDoesNotExistError
	}))
	e := &Engine{
		loop:       eventloop.NewEventLoop(eventloop.EnableConsole(opts.Builtins.Console), eventloop.WithRegistry(registry)),
		loader:     opts.Loader,
		transpiler: opts.Transpiler,
		logger:     logger,
		workDir:    abs,
		typeScript: opts.TypeScript && opts.Transpiler != nil,
		globalName: globalName,
		builtins:   opts.Builtins,
		modules:    make(map[string]*node),
		timeOrigin: time.Now(),
		rejections: make(map[*goja.Promise]struct{}),
	}

	var installErr error
	e.loop.Run(func(vm *goja.Runtime) {
		e.vm = vm
		e.native = registry.Enable(vm)
		vm.SetPromiseRejectionTracker(e.trackRejection)
		installErr = e.installBuiltins()
	})
	if installErr != nil {
		return nil, fmt.Errorf("install builtins: %w", installErr)
	}
	return e, nil
}

// WorkDir 返回内联代码与裸 specifier 的根目录。
func (e *Engine) WorkDir() string {
	return e.workDir
}

// Execute 解析并加载 raw 指向的入口模块及其全部依赖，然后求值入口并排空事件循环。
// 任一依赖加载失败时不执行任何模块。
func (e *Engine) Execute(ctx context.Context, raw string) error {
	return e.execute(ctx, func(g *graph) (string, error) {
		return g.request(raw, nil, module.RequestJavaScript, true)
	})
}

// ExecuteSource 把 code 作为位于 WorkDir/name 的模块执行，typescript 为 true 时先转译。
func (e *Engine) ExecuteSource(ctx context.Context, name, code string, typescript bool) error {
	if name == "" {
		name = "$inline.js"
	}
	spec, err := module.FileSpecifier(filepath.Join(e.workDir, name))
	if err != nil {
		return module.NewError(module.KindResolution, name, err)
	}
	if typescript {
		if !e.typeScript {
			return errors.New("typescript support is disabled")
		}
		syntax, ok := transpile.SyntaxForPath(name)
		if !ok {
			syntax = transpile.SyntaxTS
		}
		code, err = e.transpiler.Transpile(spec.String(), code, syntax)
		if err != nil {
			return err
		}
	}
	rec := &module.Record{Specifier: spec, Kind: module.KindScript, Source: []byte(code)}
	return e.execute(ctx, func(g *graph) (string, error) {
		return g.inline(rec)
	})
}

func (e *Engine) execute(ctx context.Context, root func(*graph) (string, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var runErr error
	g := newGraph(ctx, e, func(g *graph, err error) {
		if err != nil {
			runErr = err
			return
		}
		_, runErr = e.instantiate(g.nodes[g.root])
	})
	stop := context.AfterFunc(ctx, func() {
		e.vm.Interrupt(ctx.Err())
		e.loop.RunOnLoop(func(*goja.Runtime) {
			g.fail(ctx.Err())
		})
	})
	defer stop()

	e.loop.Run(func(vm *goja.Runtime) {
		vm.ClearInterrupt()
		clear(e.rejections)
		key, err := root(g)
		if err != nil {
			g.fail(err)
			return
		}
		g.root = key
		g.settleIfReady()
	})
	if runErr == nil {
		runErr = e.takeRejection()
	}
	return e.wrapError(runErr)
}

// Eval 以经典脚本方式求值 code，返回最后一个表达式的值。
func (e *Engine) Eval(ctx context.Context, code string) (goja.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { e.vm.Interrupt(ctx.Err()) })
	defer stop()

	var (
		value goja.Value
		err   error
	)
	e.loop.Run(func(vm *goja.Runtime) {
		vm.ClearInterrupt()
		clear(e.rejections)
		value, err = vm.RunScript("<eval>", code)
	})
	if err == nil {
		err = e.takeRejection()
	}
	return value, e.wrapError(err)
}

// Transpile 用引擎配置的转译器去除 code 中的 TypeScript 类型。
func (e *Engine) Transpile(code string) (string, error) {
	if !e.typeScript {
		return "", errors.New("typescript support is disabled")
	}
	return e.transpiler.Transpile("<inline>.ts", code, transpile.SyntaxTS)
}

// LoadExtensions 依次以经典脚本方式执行预加载脚本，TypeScript 扩展名会先转译。
func (e *Engine) LoadExtensions(ctx context.Context, paths []string) error {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return module.NewError(module.KindIO, p, err)
		}
		code := string(data)
		if syntax, ok := transpile.SyntaxForPath(p); ok {
			if !e.typeScript {
				return fmt.Errorf("extension %s: typescript support is disabled", p)
			}
			if code, err = e.transpiler.Transpile(p, code, syntax); err != nil {
				return err
			}
		}
		if err := e.runScript(ctx, p, code); err != nil {
			return fmt.Errorf("extension %s: %w", p, err)
		}
		e.logger.WithFields(logrus.Fields{"action": "extension", "path": p}).Debug("extension_loaded")
	}
	return nil
}

func (e *Engine) runScript(ctx context.Context, name, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { e.vm.Interrupt(ctx.Err()) })
	defer stop()

	var err error
	e.loop.Run(func(vm *goja.Runtime) {
		vm.ClearInterrupt()
		clear(e.rejections)
		_, err = vm.RunScript(name, code)
	})
	if err == nil {
		err = e.takeRejection()
	}
	return err
}

// RuntimeData 返回运行时数据的 JSON 文本，未设置时为 "{}"。
func (e *Engine) RuntimeData() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		out string
		err error
	)
	e.loop.Run(func(vm *goja.Runtime) {
		out, err = e.stringifyRuntimeData()
	})
	return out, err
}

// SetRuntimeData 用 JSON 对象文本替换运行时数据。
func (e *Engine) SetRuntimeData(data string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	e.loop.Run(func(vm *goja.Runtime) {
		var v goja.Value
		if v, err = e.parseJSON(data); err != nil {
			return
		}
		err = e.setRuntimeData(v)
	})
	return e.wrapError(err)
}

func (e *Engine) trackRejection(p *goja.Promise, op goja.PromiseRejectionOperation) {
	switch op {
	case goja.PromiseRejectionReject:
		e.rejections[p] = struct{}{}
	case goja.PromiseRejectionHandle:
		delete(e.rejections, p)
	}
}

func (e *Engine) takeRejection() error {
	for p := range e.rejections {
		reason := p.Result()
		clear(e.rejections)
		if reason == nil {
			return errors.New("unhandled promise rejection")
		}
		return fmt.Errorf("unhandled promise rejection: %s", reason.String())
	}
	return nil
}

func (e *Engine) wrapError(err error) error {
	if err == nil {
		return nil
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
	}
	return err
}
