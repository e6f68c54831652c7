package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述进程级行为：日志与诊断服务端口。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
}

// LoaderConfig 决定模块解析、抓取、缓存与转译的行为。
type LoaderConfig struct {
	WorkDir         string   `mapstructure:"WorkDir"`
	CacheDir        string   `mapstructure:"CacheDir"`
	FetchTimeout    Duration `mapstructure:"FetchTimeout"`
	NpmCDN          string   `mapstructure:"NpmCDN"`
	TypeScript      bool     `mapstructure:"TypeScript"`
	Transpiler      string   `mapstructure:"Transpiler"`
	InlineSourceMap bool     `mapstructure:"InlineSourceMap"`
}

// RuntimeConfig 描述脚本运行时本身。
type RuntimeConfig struct {
	GlobalObjectName string   `mapstructure:"GlobalObjectName"`
	Extensions       []string `mapstructure:"Extensions"`
}

// BuiltinsConfig 控制注入到全局对象上的内置能力。
type BuiltinsConfig struct {
	Crypto      bool `mapstructure:"Crypto"`
	Performance bool `mapstructure:"Performance"`
	Runtime     bool `mapstructure:"Runtime"`
	Console     bool `mapstructure:"Console"`
	Timers      bool `mapstructure:"Timers"`
	Base64      bool `mapstructure:"Base64"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global   GlobalConfig   `mapstructure:",squash"`
	Loader   LoaderConfig   `mapstructure:",squash"`
	Runtime  RuntimeConfig  `mapstructure:",squash"`
	Builtins BuiltinsConfig `mapstructure:"Builtins"`
}

// CachePath 返回模块缓存目录的绝对路径，相对路径以 WorkDir 为基准。
func (c *Config) CachePath() string {
	dir := c.Loader.CacheDir
	if dir == "" {
		dir = DefaultCacheDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Loader.WorkDir, dir)
}

// ExtensionPaths 返回预加载脚本的绝对路径。
func (c *Config) ExtensionPaths() []string {
	if len(c.Runtime.Extensions) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.Runtime.Extensions))
	for _, ext := range c.Runtime.Extensions {
		if filepath.IsAbs(ext) {
			out = append(out, ext)
			continue
		}
		out = append(out, filepath.Join(c.Loader.WorkDir, ext))
	}
	return out
}
