package scheme

// RewriteFunc 将原始 specifier 改写为可抓取的 URL，cdn 为配置中的包 CDN 前缀。
type RewriteFunc func(raw string, cdn string) string

// Metadata 描述一个 scheme 的静态信息，供分类器与诊断端使用。
type Metadata struct {
	Key         string
	Description string
	// Prefixes 是识别该 scheme 的原始字符串前缀，按注册顺序匹配。
	Prefixes []string
	// Remote 表示需要网络抓取并写入模块缓存。
	Remote bool
	// Alias 表示 specifier 是包别名，需先经 Rewrite 得到真实 URL。
	Alias   bool
	Rewrite RewriteFunc
}

// Cacheable 返回该 scheme 的模块是否进入磁盘缓存，只有远程模块会被缓存。
func (m Metadata) Cacheable() bool {
	return m.Remote
}
