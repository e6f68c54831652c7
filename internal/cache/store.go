package cache

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/yasumu-org/tanxium/internal/module"
)

// Store 负责管理远程模块缓存的读写。磁盘布局遵循：
//
//	<CacheDir>/<md5(specifier)>.js    # 转译后的正文
//
// 每个条目仅由正文文件组成，文件的 ModTime/Size 由文件系统提供。
type Store interface {
	// PathFor 返回 specifier 对应的缓存文件绝对路径，不访问磁盘。
	PathFor(spec module.Specifier) string

	// Get 返回一个可流式读取的缓存条目。若不存在则返回 ErrNotFound。
	Get(ctx context.Context, spec module.Specifier) (*ReadResult, error)

	// Put 写入模块正文并产出新的 Entry 描述。实现需通过临时文件 + rename
	// 保证写入原子性，并在失败时清理临时文件。目录在首次写入时创建。
	Put(ctx context.Context, spec module.Specifier, body io.Reader) (*Entry, error)

	// Remove 删除单个条目，条目不存在时不报错。
	Remove(ctx context.Context, spec module.Specifier) error

	// List 返回目录下全部缓存条目，目录不存在时返回空列表。
	List(ctx context.Context) ([]Entry, error)

	// Clear 删除全部缓存条目并返回删除数量。
	Clear(ctx context.Context) (int, error)
}

// Entry 描述一个缓存文件。Specifier 仅在按 specifier 访问时填充，List 无法反推。
type Entry struct {
	Key       string    `json:"key"`
	Specifier string    `json:"specifier,omitempty"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader，调用方负责关闭 Reader。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// Ext 是缓存文件的固定后缀。
const Ext = ".js"
