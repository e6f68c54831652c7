package cache

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/yasumu-org/tanxium/internal/module"
)

// ErrStoreUnavailable 表示加载器未注入缓存存储实例。
var ErrStoreUnavailable = errors.New("cache store unavailable")

// SourceCache 在 Store 之上提供按整段源码读写的便捷封装，加载器只与它交互。
type SourceCache struct {
	store Store
}

// NewSourceCache 包装 store；store 为 nil 时所有读取均未命中、写入返回 ErrStoreUnavailable。
func NewSourceCache(store Store) SourceCache {
	return SourceCache{store: store}
}

// Enabled 返回当前是否具备缓存能力。
func (c SourceCache) Enabled() bool {
	return c.store != nil
}

// Lookup 读取整段缓存源码，未命中返回 ErrNotFound。
func (c SourceCache) Lookup(ctx context.Context, spec module.Specifier) ([]byte, error) {
	if c.store == nil {
		return nil, ErrNotFound
	}
	result, err := c.store.Get(ctx, spec)
	if err != nil {
		return nil, err
	}
	defer result.Reader.Close()
	return io.ReadAll(result.Reader)
}

// Save 写入转译后的源码。
func (c SourceCache) Save(ctx context.Context, spec module.Specifier, source []byte) (*Entry, error) {
	if c.store == nil {
		return nil, ErrStoreUnavailable
	}
	return c.store.Put(ctx, spec, bytes.NewReader(source))
}
