package specifier

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yasumu-org/tanxium/internal/module"
	"github.com/yasumu-org/tanxium/internal/scheme"
)

// IndexCandidates 是目录导入时依次探测的文件名，命中第一个即停止。
var IndexCandidates = []string{
	"index.js",
	"index.cjs",
	"index.mjs",
	"index.jsx",
	"index.ts",
	"index.cts",
	"index.mts",
	"index.tsx",
}

// Classifier 负责把原始 specifier 与引用方组合为具体分类，只读取文件元信息，不读取内容。
type Classifier struct {
	workDir string
	npmCDN  string
}

// New 创建分类器，workDir 为空时使用进程当前目录。
func New(workDir, npmCDN string) (*Classifier, error) {
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
	return &Classifier{workDir: abs, npmCDN: npmCDN}, nil
}

// WorkDir 返回裸 specifier 与入口脚本的解析根目录。
func (c *Classifier) WorkDir() string {
	return c.workDir
}

// Resolve 返回 raw 在 referrer 上下文中的最终规范 specifier。
func (c *Classifier) Resolve(raw string, referrer *module.Specifier) (module.Specifier, error) {
	category, err := c.Classify(raw, referrer)
	if err != nil {
		return module.Specifier{}, err
	}
	return category.Specifier, nil
}

// Classify 判定 raw 的分类。目录会按 IndexCandidates 展开为 LocalFile；
// 缺失的路径返回 ModuleNotFound，无法解析的输入返回 ResolutionError。
func (c *Classifier) Classify(raw string, referrer *module.Specifier) (module.Category, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return module.Category{}, module.NewError(module.KindResolution, raw, errors.New("empty specifier"))
	}

	if meta, ok := scheme.Match(trimmed); ok {
		return c.classifyScheme(meta, trimmed)
	}
	if hasForeignScheme(trimmed) {
		return module.Category{}, module.NewError(module.KindResolution, trimmed, errors.New("unsupported scheme"))
	}

	switch {
	case isRelative(trimmed):
		return c.classifyRelative(trimmed, referrer)
	case strings.HasPrefix(trimmed, "/"):
		if referrer != nil && !referrer.IsFile() {
			return c.joinRemote(trimmed, *referrer)
		}
		return c.classifyPath(filepath.FromSlash(trimmed), trimmed)
	case filepath.IsAbs(trimmed):
		return c.classifyPath(trimmed, trimmed)
	default:
		return c.classifyPath(filepath.Join(c.workDir, filepath.FromSlash(trimmed)), trimmed)
	}
}

func (c *Classifier) classifyScheme(meta scheme.Metadata, raw string) (module.Category, error) {
	if meta.Alias {
		name := raw[len(meta.Prefixes[0]):]
		for _, prefix := range meta.Prefixes {
			if len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix) {
				name = raw[len(prefix):]
				break
			}
		}
		name = strings.TrimLeft(name, "/")
		if name == "" {
			return module.Category{}, module.NewError(module.KindResolution, raw, errors.New("missing package name"))
		}
		target := meta.Rewrite(raw, c.npmCDN)
		spec, err := parseRemote(target)
		if err != nil {
			return module.Category{}, module.NewError(module.KindResolution, raw, err)
		}
		return module.Category{Kind: module.PackageAlias, Specifier: spec, URL: spec.String(), Name: name}, nil
	}

	if meta.Remote {
		spec, err := parseRemote(raw)
		if err != nil {
			return module.Category{}, module.NewError(module.KindResolution, raw, err)
		}
		return module.Category{Kind: module.Remote, Specifier: spec, URL: spec.String()}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return module.Category{}, module.NewError(module.KindResolution, raw, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return module.Category{}, module.NewError(module.KindResolution, raw, errors.New("file URL with remote host"))
	}
	return c.classifyPath(filepath.FromSlash(u.Path), raw)
}

func (c *Classifier) classifyRelative(raw string, referrer *module.Specifier) (module.Category, error) {
	if referrer != nil && !referrer.IsFile() {
		return c.joinRemote(raw, *referrer)
	}
	base := c.workDir
	if referrer != nil {
		base = filepath.Dir(referrer.FilePath())
	}
	return c.classifyPath(filepath.Join(base, filepath.FromSlash(raw)), raw)
}

func (c *Classifier) joinRemote(raw string, referrer module.Specifier) (module.Category, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return module.Category{}, module.NewError(module.KindResolution, raw, err)
	}
	joined := referrer.URL().ResolveReference(ref)
	spec := module.FromURL(joined)
	return module.Category{Kind: module.Remote, Specifier: spec, URL: spec.String()}, nil
}

func (c *Classifier) classifyPath(p string, raw string) (module.Category, error) {
	p = filepath.Clean(p)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return module.Category{}, module.NewError(module.KindNotFound, raw, nil)
		}
		return module.Category{}, module.NewError(module.KindIO, raw, err)
	}

	category := module.Category{Kind: module.LocalFile, Path: p}
	if info.IsDir() {
		category.Kind = module.LocalDirectoryIndex
		category, err = expandIndex(category, raw)
		if err != nil {
			return module.Category{}, err
		}
	}

	spec, err := module.FileSpecifier(category.Path)
	if err != nil {
		return module.Category{}, module.NewError(module.KindResolution, raw, err)
	}
	category.Specifier = spec
	return category, nil
}

// expandIndex 将 LocalDirectoryIndex 改写为命中的 index 文件；全部缺失返回 ModuleNotFound。
func expandIndex(category module.Category, raw string) (module.Category, error) {
	index, ok := ProbeIndex(category.Path)
	if !ok {
		return module.Category{}, module.NewError(module.KindNotFound, raw, fmt.Errorf("no index file in %s", category.Path))
	}
	return module.Category{Kind: module.LocalFile, Path: index}, nil
}

// ProbeIndex 按 IndexCandidates 顺序查找目录下第一个存在的常规文件。
func ProbeIndex(dir string) (string, bool) {
	for _, name := range IndexCandidates {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func parseRemote(raw string) (module.Specifier, error) {
	spec, err := module.ParseSpecifier(raw)
	if err != nil {
		return module.Specifier{}, err
	}
	if spec.URL().Host == "" {
		return module.Specifier{}, errors.New("remote specifier requires a host")
	}
	return spec, nil
}

func isRelative(raw string) bool {
	return raw == "." || raw == ".." ||
		strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../") ||
		strings.HasPrefix(raw, `.\`) || strings.HasPrefix(raw, `..\`)
}

// hasForeignScheme 识别 data:、node: 等未注册的 scheme，排除 Windows 盘符。
func hasForeignScheme(raw string) bool {
	idx := strings.Index(raw, ":")
	if idx <= 1 {
		return false
	}
	for i, r := range raw[:idx] {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && (r < '0' || r > '9') && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}
