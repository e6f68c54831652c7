package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvConfigPath 指定配置文件路径的环境变量，优先级低于 -config 参数。
const EnvConfigPath = "TANXIUM_CONFIG"

const (
	DefaultCacheDir         = ".module_cache"
	DefaultNpmCDN           = "https://cdn.jsdelivr.net/npm/"
	DefaultGlobalObjectName = "Tanxium"
	DefaultListenPort       = 7070
	DefaultFetchTimeout     = 30 * time.Second
)

// ResolvePath 按 flag > 环境变量的顺序返回配置文件路径，均为空时返回空串（仅使用默认值）。
func ResolvePath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(EnvConfigPath))
}

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。path 为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TANXIUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", DefaultListenPort)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("WorkDir", "")
	v.SetDefault("CacheDir", DefaultCacheDir)
	v.SetDefault("FetchTimeout", "30s")
	v.SetDefault("NpmCDN", DefaultNpmCDN)
	v.SetDefault("TypeScript", true)
	v.SetDefault("Transpiler", "esbuild")
	v.SetDefault("InlineSourceMap", false)
	v.SetDefault("GlobalObjectName", DefaultGlobalObjectName)
	v.SetDefault("Extensions", []string{})
	v.SetDefault("Builtins.Crypto", true)
	v.SetDefault("Builtins.Performance", true)
	v.SetDefault("Builtins.Runtime", true)
	v.SetDefault("Builtins.Console", true)
	v.SetDefault("Builtins.Timers", true)
	v.SetDefault("Builtins.Base64", true)
}

// Default 返回仅包含默认值的配置，WorkDir 取进程当前目录。
func Default() *Config {
	cfg := &Config{
		Global: GlobalConfig{
			ListenPort:    DefaultListenPort,
			LogLevel:      "info",
			LogMaxSize:    100,
			LogMaxBackups: 10,
			LogCompress:   true,
		},
		Loader: LoaderConfig{
			CacheDir:     DefaultCacheDir,
			FetchTimeout: Duration(DefaultFetchTimeout),
			NpmCDN:       DefaultNpmCDN,
			TypeScript:   true,
			Transpiler:   "esbuild",
		},
		Runtime: RuntimeConfig{GlobalObjectName: DefaultGlobalObjectName},
		Builtins: BuiltinsConfig{
			Crypto:      true,
			Performance: true,
			Runtime:     true,
			Console:     true,
			Timers:      true,
			Base64:      true,
		},
	}
	_ = applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) error {
	if cfg.Global.ListenPort == 0 {
		cfg.Global.ListenPort = DefaultListenPort
	}
	if cfg.Loader.FetchTimeout.DurationValue() == 0 {
		cfg.Loader.FetchTimeout = Duration(DefaultFetchTimeout)
	}
	if strings.TrimSpace(cfg.Loader.CacheDir) == "" {
		cfg.Loader.CacheDir = DefaultCacheDir
	}
	if strings.TrimSpace(cfg.Loader.NpmCDN) == "" {
		cfg.Loader.NpmCDN = DefaultNpmCDN
	}
	cfg.Loader.Transpiler = strings.ToLower(strings.TrimSpace(cfg.Loader.Transpiler))
	if cfg.Loader.Transpiler == "" {
		cfg.Loader.Transpiler = "esbuild"
	}
	if strings.TrimSpace(cfg.Runtime.GlobalObjectName) == "" {
		cfg.Runtime.GlobalObjectName = DefaultGlobalObjectName
	}

	workDir := cfg.Loader.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("无法获取工作目录: %w", err)
		}
		workDir = wd
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return fmt.Errorf("无法解析工作目录: %w", err)
	}
	cfg.Loader.WorkDir = abs
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
