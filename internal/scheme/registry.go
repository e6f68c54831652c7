package scheme

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var globalRegistry = newRegistry()

type registry struct {
	mu      sync.RWMutex
	schemes map[string]Metadata
}

func newRegistry() *registry {
	return &registry{schemes: make(map[string]Metadata)}
}

// Register 将 scheme 元数据加入全局注册表，重复键会返回错误。
func Register(meta Metadata) error {
	return globalRegistry.register(meta)
}

// MustRegister 在注册失败时 panic，适合 scheme 包的 init() 调用。
func MustRegister(meta Metadata) {
	if err := Register(meta); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的 scheme 元数据。
func Resolve(key string) (Metadata, bool) {
	return globalRegistry.resolve(key)
}

// List 返回按键排序的元数据列表。
func List() []Metadata {
	return globalRegistry.list()
}

// Match 返回前缀匹配 raw 的 scheme；多个前缀同时命中时取最长者。
func Match(raw string) (Metadata, bool) {
	return globalRegistry.match(raw)
}

// RemotePrefixes 汇总所有远程 scheme 的前缀，便于日志与诊断输出。
func RemotePrefixes() []string {
	var out []string
	for _, meta := range List() {
		if meta.Remote {
			out = append(out, meta.Prefixes...)
		}
	}
	return out
}

func (r *registry) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(meta Metadata) error {
	key := r.normalizeKey(meta.Key)
	if key == "" {
		return fmt.Errorf("scheme key is required")
	}
	if len(meta.Prefixes) == 0 {
		return fmt.Errorf("scheme %s requires at least one prefix", key)
	}
	if meta.Alias && meta.Rewrite == nil {
		return fmt.Errorf("alias scheme %s requires a rewrite func", key)
	}
	meta.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemes[key]; exists {
		return fmt.Errorf("scheme %s already registered", key)
	}
	r.schemes[key] = meta
	return nil
}

func (r *registry) resolve(key string) (Metadata, bool) {
	normalized := r.normalizeKey(key)
	if normalized == "" {
		return Metadata{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.schemes[normalized]
	return meta, ok
}

func (r *registry) match(raw string) (Metadata, bool) {
	lowered := strings.ToLower(raw)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best    Metadata
		bestLen int
	)
	for _, meta := range r.schemes {
		for _, prefix := range meta.Prefixes {
			if strings.HasPrefix(lowered, prefix) && len(prefix) > bestLen {
				best = meta
				bestLen = len(prefix)
			}
		}
	}
	return best, bestLen > 0
}

func (r *registry) list() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.schemes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.schemes))
	for key := range r.schemes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Metadata, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.schemes[key])
	}
	return result
}
