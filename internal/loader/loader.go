package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yasumu-org/tanxium/internal/cache"
	"github.com/yasumu-org/tanxium/internal/logging"
	"github.com/yasumu-org/tanxium/internal/module"
	"github.com/yasumu-org/tanxium/internal/transpile"
)

// Classifier 将 specifier 归类，由 internal/specifier 实现。
type Classifier interface {
	Classify(raw string, referrer *module.Specifier) (module.Category, error)
	Resolve(raw string, referrer *module.Specifier) (module.Specifier, error)
}

// Fetcher 读取分类对应的字节，由 internal/fetch 实现。
type Fetcher interface {
	Fetch(ctx context.Context, category module.Category) (*module.FetchResult, error)
}

// Options 组装 Loader 的协作者。Cache 为 nil 时不缓存；Transpiler 为 nil 时不转译。
type Options struct {
	Classifier Classifier
	Fetcher    Fetcher
	Cache      cache.Store
	Transpiler transpile.Transpiler
	Logger     *logrus.Logger
	Metrics    *Metrics
	Observers  []Observer
}

// Loader 负责 orchestrate “分类 → 缓存命中 → 抓取 → 转译 → 写缓存” 的全流程，
// 每次 Load 在独立协程中运行，结果经 Completion 交付。
type Loader struct {
	classifier Classifier
	fetcher    Fetcher
	cache      cache.SourceCache
	transpiler transpile.Transpiler
	logger     *logrus.Logger
	metrics    *Metrics
	observers  []Observer
}

// New 校验依赖并构造 Loader。
func New(opts Options) (*Loader, error) {
	if opts.Classifier == nil {
		return nil, errors.New("loader requires a classifier")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("loader requires a fetcher")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	observers := append([]Observer(nil), opts.Observers...)
	if opts.Metrics != nil {
		observers = append(observers, opts.Metrics.Observe)
	}
	return &Loader{
		classifier: opts.Classifier,
		fetcher:    opts.Fetcher,
		cache:      cache.NewSourceCache(opts.Cache),
		transpiler: opts.Transpiler,
		logger:     logger,
		metrics:    opts.Metrics,
		observers:  observers,
	}, nil
}

// Resolve 同步计算 raw 相对 referrer 的规范 specifier，只读取文件元信息。
func (l *Loader) Resolve(raw string, referrer *module.Specifier) (module.Specifier, error) {
	return l.classifier.Resolve(raw, referrer)
}

// Load 立即返回，加载在后台协程中进行，done 恰好被完成一次。
// ctx 只提供请求范围的值，加载一旦开始不会因 ctx 取消而中止。
func (l *Loader) Load(ctx context.Context, req module.Request, done *Completion) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.metrics.started()
	go l.run(context.WithoutCancel(ctx), req, done)
}

// LoadSync 执行一次加载并等待结果，供诊断接口与工具命令使用。
func (l *Loader) LoadSync(ctx context.Context, req module.Request) (*module.Record, error) {
	done, ch := NewChanCompletion()
	l.Load(ctx, req, done)
	select {
	case res := <-ch:
		return res.Record, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// outcome 汇总单次加载的日志字段。
type outcome struct {
	category string
	cacheHit bool
}

func (l *Loader) run(ctx context.Context, req module.Request, done *Completion) {
	started := time.Now()
	tr := &tracker{specifier: req.Specifier.String(), observers: l.observers}
	out := outcome{category: "unknown"}

	var (
		rec *module.Record
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("load %s panicked: %v", req.Specifier, r)
		}
		elapsed := time.Since(started)
		if err != nil {
			tr.enter(StateFailed)
			l.metrics.finished(out.category, true, elapsed.Seconds())
			l.complete(done, nil, err)
		} else {
			tr.enter(StateCompleting)
			l.metrics.finished(out.category, false, elapsed.Seconds())
			l.complete(done, rec, nil)
			tr.enter(StateDone)
		}
		l.logResult(req, out, tr.current, elapsed, err)
	}()

	rec, err = l.pipeline(ctx, req, tr, &out)
}

func (l *Loader) complete(done *Completion, rec *module.Record, err error) {
	if done == nil {
		return
	}
	if cerr := done.Complete(rec, err); cerr != nil {
		l.logger.WithFields(logrus.Fields{"action": "load"}).Warn(cerr.Error())
	}
}

func (l *Loader) pipeline(ctx context.Context, req module.Request, tr *tracker, out *outcome) (*module.Record, error) {
	tr.enter(StateClassifying)
	if req.Specifier.IsZero() {
		return nil, module.NewError(module.KindResolution, "", errors.New("empty specifier"))
	}
	category, err := l.classifier.Classify(req.Specifier.String(), req.Referrer)
	if err != nil {
		return nil, err
	}
	out.category = category.Kind.String()
	spec := category.Specifier
	kind := transpile.KindFor(category, req.RequestedType)

	// 缓存键不含声明类型，只缓存脚本。
	cacheable := category.IsRemote() && kind == module.KindScript && l.cache.Enabled()
	if cacheable {
		tr.enter(StateCacheLookup)
		source, err := l.cache.Lookup(ctx, spec)
		switch {
		case err == nil:
			l.metrics.cacheResult(true)
			out.cacheHit = true
			return &module.Record{Specifier: spec, Kind: kind, Source: source, Provenance: module.FromCache}, nil
		case errors.Is(err, cache.ErrNotFound):
			l.metrics.cacheResult(false)
		default:
			l.metrics.cacheResult(false)
			l.logger.WithError(err).
				WithFields(logging.LoadFields(spec.String(), out.category, false)).
				Warn("cache_get_failed")
		}
	}

	tr.enter(StateFetching)
	fetched, err := l.fetcher.Fetch(ctx, category)
	if err != nil {
		return nil, err
	}
	if err := transpile.CheckType(spec, kind, req.RequestedType); err != nil {
		return nil, err
	}

	source := fetched.Data
	if kind == module.KindScript && l.transpiler != nil && transpile.NeedsTranspile(category, fetched.ContentType) {
		tr.enter(StateTranspiling)
		code, err := l.transpiler.Transpile(spec.String(), string(source), transpile.SyntaxFor(category))
		if err != nil {
			if module.KindOf(err) == "" {
				err = module.NewError(module.KindTranspile, spec.String(), err)
			}
			return nil, err
		}
		source = []byte(code)
	}

	if cacheable {
		tr.enter(StateCacheWrite)
		if _, err := l.cache.Save(ctx, spec, source); err != nil {
			l.logger.WithError(err).
				WithFields(logging.LoadFields(spec.String(), out.category, false)).
				Warn("cache_write_failed")
		}
	}

	return &module.Record{Specifier: spec, Kind: kind, Source: source, Provenance: fetched.Provenance}, nil
}

func (l *Loader) logResult(req module.Request, out outcome, state State, elapsed time.Duration, err error) {
	fields := logging.LoadFields(req.Specifier.String(), out.category, out.cacheHit)
	fields["state"] = state.String()
	fields["requested_type"] = req.RequestedType.String()
	fields["elapsed_ms"] = elapsed.Milliseconds()
	if req.Referrer != nil {
		fields["referrer"] = req.Referrer.String()
	}
	if err != nil {
		fields["error"] = err.Error()
		if kind := module.KindOf(err); kind != "" {
			fields["error_kind"] = string(kind)
		}
		l.logger.WithFields(fields).Error("load_failed")
		return
	}
	l.logger.WithFields(fields).Debug("load_complete")
}
