package engine

import (
	"context"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"github.com/yasumu-org/tanxium/internal/loader"
	"github.com/yasumu-org/tanxium/internal/module"
)

// node 是模块图中的一个条目，键为规范 specifier 与声明类型的组合。
// hard 表示入口经由 import/export 语句链可达，它的加载失败会拒绝整个模块图。
type node struct {
	key       string
	spec      module.Specifier
	requested module.RequestedType
	native    string
	record    *module.Record
	code      string
	deps      map[string]string
	hardDeps  []string
	missing   map[string]error
	hard      bool
	failed    error
	module    *goja.Object
	err       error
}

func nodeKey(spec module.Specifier, requested module.RequestedType) string {
	if requested == module.RequestJavaScript {
		return spec.String()
	}
	return spec.String() + "#" + string(requested)
}

// graph 收集一次执行所需的全部模块。所有方法都在事件循环上调用。
type graph struct {
	e       *Engine
	ctx     context.Context
	root    string
	nodes   map[string]*node
	added   map[string]struct{}
	pending int
	err     error
	settled bool

	keepalive *eventloop.Interval
	onSettled func(*graph, error)
}

func newGraph(ctx context.Context, e *Engine, onSettled func(*graph, error)) *graph {
	return &graph{
		e:         e,
		ctx:       ctx,
		nodes:     e.modules,
		added:     make(map[string]struct{}),
		onSettled: onSettled,
	}
}

// request 解析 raw 并在首次出现时发起一次加载，返回节点键。
// hard 为 false 时加载失败只记在节点上，由 require 在调用处抛出。
func (g *graph) request(raw string, referrer *module.Specifier, requested module.RequestedType, hard bool) (string, error) {
	if name, ok := nativeModuleName(raw); ok {
		key := "node:" + name
		if _, exists := g.nodes[key]; !exists {
			g.add(&node{key: key, native: name})
		}
		return key, nil
	}

	spec, err := g.e.loader.Resolve(raw, referrer)
	if err != nil {
		return "", err
	}
	key := nodeKey(spec, requested)
	if old, exists := g.nodes[key]; exists && !g.stale(old) {
		if hard {
			if err := g.harden(old); err != nil {
				return "", err
			}
		}
		return key, nil
	}
	g.start(&node{key: key, spec: spec, requested: requested, hard: hard}, referrer)
	return key, nil
}

// stale 报告 n 是否是之前某次执行中加载失败的节点，这类节点会重新加载。
func (g *graph) stale(n *node) bool {
	_, owned := g.added[n.key]
	return n.failed != nil && !owned
}

func (g *graph) start(n *node, referrer *module.Specifier) {
	g.add(n)
	g.pending++
	if g.keepalive == nil {
		g.keepalive = g.e.loop.SetInterval(func(*goja.Runtime) {}, time.Hour)
	}
	req := module.Request{Specifier: n.spec, Referrer: referrer, RequestedType: n.requested}
	done := loader.NewCompletion(func(rec *module.Record, err error) {
		g.e.loop.RunOnLoop(func(*goja.Runtime) {
			g.loaded(n, rec, err)
		})
	})
	g.e.loader.Load(g.ctx, req, done)
}

// inline 把已有源码的记录加入图中，不经过加载器。
func (g *graph) inline(rec *module.Record) (string, error) {
	key := "inline:" + rec.Specifier.String()
	if old, ok := g.nodes[key]; ok {
		delete(g.nodes, old.key)
	}
	n := &node{key: key, spec: rec.Specifier, hard: true}
	g.add(n)
	if err := g.link(n, rec); err != nil {
		return "", err
	}
	return key, nil
}

func (g *graph) add(n *node) {
	g.nodes[n.key] = n
	g.added[n.key] = struct{}{}
}

func (g *graph) loaded(n *node, rec *module.Record, err error) {
	if g.settled {
		return
	}
	g.pending--
	if err == nil {
		err = g.link(n, rec)
	}
	if err != nil {
		n.failed = err
		n.err = err
		if n.hard {
			g.fail(err)
			return
		}
	}
	g.settleIfReady()
}

// harden 把 n 及其经 import 语句可达的节点标记为必需，遇到已失败的节点时返回其错误。
func (g *graph) harden(n *node) error {
	if n.hard {
		return nil
	}
	n.hard = true
	if n.failed != nil {
		return n.failed
	}
	for _, key := range n.hardDeps {
		dep, ok := g.nodes[key]
		switch {
		case !ok:
		case g.stale(dep):
			g.start(&node{key: key, spec: dep.spec, requested: dep.requested, hard: true}, &n.spec)
		default:
			if err := g.harden(dep); err != nil {
				return err
			}
		}
	}
	return nil
}

// link 记录模块产物并为脚本模块发现依赖。
// import/export 语句的解析失败使本模块失败；require() 与 import() 的解析失败留给调用处抛出。
func (g *graph) link(n *node, rec *module.Record) error {
	n.record = rec
	n.spec = rec.Specifier
	if rec.Kind != module.KindScript {
		return nil
	}
	source, attrs := extractAttributes(string(rec.Source))
	code, err := lowerModule(rec.Specifier.String(), source)
	if err != nil {
		return err
	}
	n.code = code
	n.deps = make(map[string]string)
	n.missing = make(map[string]error)
	referrer := rec.Specifier
	for _, dep := range scanDependencies(rec.Specifier.String(), source) {
		key, err := g.request(dep.raw, &referrer, attrs[dep.raw], n.hard && !dep.soft)
		switch {
		case err != nil && dep.soft:
			n.missing[dep.raw] = err
			continue
		case err != nil:
			return err
		}
		n.deps[dep.raw] = key
		if !dep.soft {
			n.hardDeps = append(n.hardDeps, key)
		}
	}
	return nil
}

func (g *graph) settleIfReady() {
	if g.settled || g.pending > 0 || g.err != nil {
		return
	}
	g.finish(nil)
}

// fail 记录首个错误并丢弃本次新增的全部节点，之后到达的完成通知会被忽略。
func (g *graph) fail(err error) {
	if g.settled {
		return
	}
	g.err = err
	for key := range g.added {
		delete(g.nodes, key)
	}
	g.finish(err)
}

func (g *graph) finish(err error) {
	g.settled = true
	if g.keepalive != nil {
		g.e.loop.ClearInterval(g.keepalive)
		g.keepalive = nil
	}
	g.onSettled(g, err)
}
