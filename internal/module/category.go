package module

import "fmt"

// CategoryKind 标记 Specifier 的分类结果，一个 Specifier 恰好对应一种分类。
type CategoryKind int

const (
	LocalFile CategoryKind = iota + 1
	LocalDirectoryIndex
	Remote
	PackageAlias
)

func (k CategoryKind) String() string {
	switch k {
	case LocalFile:
		return "local-file"
	case LocalDirectoryIndex:
		return "local-directory-index"
	case Remote:
		return "remote"
	case PackageAlias:
		return "package-alias"
	default:
		return fmt.Sprintf("category(%d)", int(k))
	}
}

// Category 是分类器的输出。
//
//   - LocalFile: Path 为文件绝对路径。
//   - LocalDirectoryIndex: Path 为目录绝对路径（探测 index 文件之前的中间态）。
//   - Remote: URL 为待抓取的远程地址。
//   - PackageAlias: Name 为 npm 包描述（如 zod@3），URL 为改写后的 CDN 地址。
//
// Specifier 始终是该分类最终对应的规范标识。
type Category struct {
	Kind      CategoryKind
	Specifier Specifier
	Path      string
	URL       string
	Name      string
}

// IsRemote 报告分类是否需要走网络抓取与缓存（Remote 与 PackageAlias）。
func (c Category) IsRemote() bool {
	return c.Kind == Remote || c.Kind == PackageAlias
}

func (c Category) String() string {
	switch c.Kind {
	case LocalFile, LocalDirectoryIndex:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Path)
	case PackageAlias:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Name)
	default:
		return fmt.Sprintf("%s(%s)", c.Kind, c.URL)
	}
}
