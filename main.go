package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dop251/goja"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/yasumu-org/tanxium/internal/cache"
	"github.com/yasumu-org/tanxium/internal/config"
	"github.com/yasumu-org/tanxium/internal/engine"
	"github.com/yasumu-org/tanxium/internal/fetch"
	"github.com/yasumu-org/tanxium/internal/loader"
	"github.com/yasumu-org/tanxium/internal/logging"
	"github.com/yasumu-org/tanxium/internal/scheme"
	"github.com/yasumu-org/tanxium/internal/server"
	"github.com/yasumu-org/tanxium/internal/server/routes"
	"github.com/yasumu-org/tanxium/internal/specifier"
	"github.com/yasumu-org/tanxium/internal/transpile"
	"github.com/yasumu-org/tanxium/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	evalCode    string
	serve       bool
	clearCache  bool
	entry       string
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

var errUsage = errors.New("usage: tanxium [-config path] [-check-config] [-version] [-eval code] [-serve] [-clear-cache] [file]")

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["work_dir"] = cfg.Loader.WorkDir
		fields["cache_dir"] = cfg.CachePath()
		fields["transpiler"] = cfg.Loader.Transpiler
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序为“配置 → 模块缓存 → 分类/抓取/转译 → Loader → 引擎或诊断服务”，
	// 保证 CLI 与诊断接口共享同一份缓存目录与指标注册表。
	tc, err := newToolchain(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化模块加载器失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["work_dir"] = cfg.Loader.WorkDir
	fields["cache_dir"] = cfg.CachePath()
	fields["version"] = version.Full()
	logger.WithFields(fields).Debug("配置加载完成")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.clearCache {
		removed, err := tc.store.Clear(ctx)
		if err != nil {
			fmt.Fprintf(stdErr, "清理模块缓存失败: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdOut, "removed %d cached modules from %s\n", removed, cfg.CachePath())
		if opts.entry == "" && opts.evalCode == "" && !opts.serve {
			return 0
		}
	}

	if opts.serve {
		if err := startHTTPServer(cfg, tc, logger); err != nil {
			fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
			return 1
		}
		return 0
	}

	if err := execute(ctx, cfg, tc, logger, opts); err != nil {
		fmt.Fprintf(stdErr, "error: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("tanxium", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
		evalCode   string
		serve      bool
		clearCache bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（可被 TANXIUM_CONFIG 提供，flag 优先）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.StringVar(&evalCode, "eval", "", "以脚本方式执行代码并输出结果")
	fs.BoolVar(&serve, "serve", false, "启动诊断 HTTP 服务")
	fs.BoolVar(&clearCache, "clear-cache", false, "清空模块缓存目录")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	rest := fs.Args()
	if len(rest) > 1 {
		return cliOptions{}, errUsage
	}
	opts := cliOptions{
		configPath:  config.ResolvePath(configFlag),
		checkOnly:   checkOnly,
		showVersion: showVer,
		evalCode:    evalCode,
		serve:       serve,
		clearCache:  clearCache,
	}
	if len(rest) == 1 {
		opts.entry = rest[0]
	}
	if !opts.showVersion && !opts.checkOnly && !opts.serve && !opts.clearCache &&
		opts.evalCode == "" && opts.entry == "" {
		return cliOptions{}, errUsage
	}
	return opts, nil
}

// toolchain 汇总 CLI 与诊断服务共享的加载链路组件。
type toolchain struct {
	classifier *specifier.Classifier
	store      cache.Store
	transpiler transpile.Transpiler
	loader     *loader.Loader
	registry   *prometheus.Registry
}

func newToolchain(cfg *config.Config, logger *logrus.Logger) (*toolchain, error) {
	classifier, err := specifier.New(cfg.Loader.WorkDir, cfg.Loader.NpmCDN)
	if err != nil {
		return nil, err
	}
	store, err := cache.NewStore(cfg.CachePath())
	if err != nil {
		return nil, err
	}

	var tr transpile.Transpiler
	if cfg.Loader.TypeScript {
		tr, err = transpile.New(transpile.Options{
			Backend:         transpile.Backend(cfg.Loader.Transpiler),
			InlineSourceMap: cfg.Loader.InlineSourceMap,
		})
		if err != nil {
			return nil, err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ld, err := loader.New(loader.Options{
		Classifier: classifier,
		Fetcher:    fetch.New(fetch.NewClient(cfg.Loader.FetchTimeout.DurationValue())),
		Cache:      store,
		Transpiler: tr,
		Logger:     logger,
		Metrics:    loader.NewMetrics(reg),
	})
	if err != nil {
		return nil, err
	}

	return &toolchain{
		classifier: classifier,
		store:      store,
		transpiler: tr,
		loader:     ld,
		registry:   reg,
	}, nil
}

// execute 创建引擎、加载扩展脚本，然后执行 -eval 代码或入口文件。
func execute(ctx context.Context, cfg *config.Config, tc *toolchain, logger *logrus.Logger, opts cliOptions) error {
	b := cfg.Builtins
	eng, err := engine.New(engine.Options{
		Loader:           tc.loader,
		Transpiler:       tc.transpiler,
		WorkDir:          cfg.Loader.WorkDir,
		TypeScript:       cfg.Loader.TypeScript,
		GlobalObjectName: cfg.Runtime.GlobalObjectName,
		Builtins: engine.Builtins{
			Crypto:      b.Crypto,
			Performance: b.Performance,
			Runtime:     b.Runtime,
			Console:     b.Console,
			Timers:      b.Timers,
			Base64:      b.Base64,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	if err := eng.LoadExtensions(ctx, cfg.ExtensionPaths()); err != nil {
		return err
	}

	if opts.evalCode != "" {
		value, err := eng.Eval(ctx, opts.evalCode)
		if err != nil {
			return err
		}
		if value != nil && !goja.IsUndefined(value) {
			fmt.Fprintln(stdOut, value.String())
		}
		return nil
	}

	entry, err := entrySpecifier(opts.entry)
	if err != nil {
		return err
	}
	return eng.Execute(ctx, entry)
}

// entrySpecifier 把命令行上的本地路径转换为绝对路径，URL 与包别名保持原样。
func entrySpecifier(raw string) (string, error) {
	if _, ok := scheme.Match(raw); ok {
		return raw, nil
	}
	return filepath.Abs(raw)
}

func startHTTPServer(cfg *config.Config, tc *toolchain, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterModuleRoutes(app)
	routes.RegisterCacheRoutes(app, tc.store)
	routes.RegisterResolveRoutes(app, tc.classifier)
	routes.RegisterTranspileRoutes(app, tc.transpiler)
	routes.RegisterMetricsRoute(app, tc.registry)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
