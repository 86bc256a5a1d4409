package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/nerdneilsfield/go-md-translator/internal/markdown"
)

// ProviderConfig 翻译后端配置
type ProviderConfig struct {
	Name        string            `mapstructure:"name" yaml:"name"`
	APIKey      string            `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Endpoint    string            `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Model       string            `mapstructure:"model" yaml:"model,omitempty"`
	Temperature float64           `mapstructure:"temperature" yaml:"temperature,omitempty"`
	MaxTokens   int               `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	Timeout     time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries  int               `mapstructure:"max_retries" yaml:"max_retries"` // 传输层重试次数
	RetryDelay  time.Duration     `mapstructure:"retry_delay" yaml:"retry_delay"`
	Headers     map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
}

// ProxyConfig 代理配置
type ProxyConfig struct {
	Enable   bool   `mapstructure:"enable" yaml:"enable"`
	Scheme   string `mapstructure:"scheme" yaml:"scheme"` // socks5 / http
	Address  string `mapstructure:"address" yaml:"address"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
}

// FrontMatterConfig Front Matter 中各类键的前缀
type FrontMatterConfig struct {
	TransparentKeys []string `mapstructure:"transparent_keys" yaml:"transparent_keys"`
	KeyValueKeys    []string `mapstructure:"key_value_keys" yaml:"key_value_keys"`
	ArrayKeys       []string `mapstructure:"key_value_array_keys" yaml:"key_value_array_keys"`
}

// LogConfig 日志配置
type LogConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // console / json
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// ServeConfig HTTP 上传服务配置
type ServeConfig struct {
	Addr          string `mapstructure:"addr" yaml:"addr"`
	UploadDir     string `mapstructure:"upload_dir" yaml:"upload_dir,omitempty"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" yaml:"max_upload_size"`
}

// Config 保存翻译器的所有配置
type Config struct {
	SourceLang      string            `mapstructure:"source_lang" yaml:"source_lang"`
	TargetLangs     []string          `mapstructure:"target_langs" yaml:"target_langs"`
	CompactLangs    []string          `mapstructure:"compact_langs" yaml:"compact_langs"`
	Warnings        map[string]string `mapstructure:"warnings" yaml:"warnings"`
	InsertWarnings  bool              `mapstructure:"insert_warnings" yaml:"insert_warnings"`
	SourceFilenames []string          `mapstructure:"source_filenames" yaml:"source_filenames"`

	ChunkSize   int           `mapstructure:"chunk_size" yaml:"chunk_size"`     // 每个文本块的字符数上限
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`   // 每个文档×语言同时进行的请求数
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"` // 每个文本块的最大尝试次数
	BackoffBase time.Duration `mapstructure:"backoff_base" yaml:"backoff_base"`

	FrontMatter         FrontMatterConfig `mapstructure:"front_matter" yaml:"front_matter"`
	TransparentPrefixes []string          `mapstructure:"transparent_prefixes" yaml:"transparent_prefixes"`
	SkipPatterns        []string          `mapstructure:"skip_patterns" yaml:"skip_patterns"`
	ExpandPatterns      []string          `mapstructure:"expand_patterns" yaml:"expand_patterns"`

	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Proxy    ProxyConfig    `mapstructure:"proxy" yaml:"proxy"`

	UseCache   bool     `mapstructure:"use_cache" yaml:"use_cache"`
	CacheDir   string   `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"`
	Glossaries []string `mapstructure:"glossaries" yaml:"glossaries,omitempty"` // 预定义翻译（TOML）文件
	Verify     bool     `mapstructure:"verify" yaml:"verify"`                   // 翻译后检查文档结构
	StatsFile  string   `mapstructure:"stats_file" yaml:"stats_file,omitempty"`

	Debug bool        `mapstructure:"debug" yaml:"debug"`
	Log   LogConfig   `mapstructure:"log" yaml:"log"`
	Serve ServeConfig `mapstructure:"serve" yaml:"serve"`
}

// EnvPrefix 环境变量前缀
const EnvPrefix = "MDTRANS"

// LoadConfig 从文件、环境变量和 .env 加载配置
func LoadConfig(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".mdtrans")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if key := os.Getenv(EnvPrefix + "_API_KEY"); key != "" {
		config.Provider.APIKey = key
	}
	if config.CacheDir == "" {
		config.CacheDir = getDefaultCacheDir()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig 以 YAML 格式保存配置
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, ".mdtrans.yaml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o644)
}

// WriteDefault 写出默认配置
func WriteDefault(path string) error {
	cfg := NewDefaultConfig()
	cfg.CacheDir = ""
	return SaveConfig(cfg, path)
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	tok := markdown.DefaultTokenizerOptions()
	return &Config{
		SourceLang:  "auto",
		TargetLangs: []string{"zh", "en"},
		CompactLangs: []string{
			"zh-TW", "ja",
		},
		Warnings: map[string]string{
			"zh": "警告：本文由机器翻译生成，可能导致质量不佳或信息有误，请谨慎阅读！",
			"en": "Warning: This page is translated by MACHINE, which may lead to POOR QUALITY or INCORRECT INFORMATION, please read with CAUTION!",
		},
		InsertWarnings:  tok.InsertWarning,
		SourceFilenames: []string{"index", "README", "_index"},
		ChunkSize:       markdown.DefaultChunkSize,
		Concurrency:     5,
		MaxAttempts:     5,
		BackoffBase:     200 * time.Millisecond,
		FrontMatter: FrontMatterConfig{
			TransparentKeys: tok.TransparentKeys,
			KeyValueKeys:    tok.KeyValueKeys,
			ArrayKeys:       tok.ArrayKeys,
		},
		TransparentPrefixes: tok.TransparentPrefixes,
		SkipPatterns:        append([]string(nil), markdown.DefaultSkipPatterns...),
		ExpandPatterns:      append([]string(nil), markdown.DefaultExpandPatterns...),
		Provider: ProviderConfig{
			Name:       "google",
			Timeout:    30 * time.Second,
			MaxRetries: 2,
			RetryDelay: 200 * time.Millisecond,
		},
		Proxy: ProxyConfig{
			Scheme:  "socks5",
			Address: "127.0.0.1",
			Port:    1080,
		},
		UseCache: true,
		CacheDir: getDefaultCacheDir(),
		Verify:   true,
		Log: LogConfig{
			Format: "console",
		},
		Serve: ServeConfig{
			Addr:          ":8080",
			MaxUploadSize: 10 << 20,
		},
	}
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.BackoffBase < 0 {
		return fmt.Errorf("backoff_base must not be negative")
	}
	if len(c.TargetLangs) == 0 {
		return fmt.Errorf("at least one target language is required")
	}
	for _, lang := range c.TargetLangs {
		if _, err := parseTag(lang); err != nil {
			return fmt.Errorf("invalid target language %q: %w", lang, err)
		}
	}
	if !strings.EqualFold(c.SourceLang, "auto") && c.SourceLang != "" {
		if _, err := parseTag(c.SourceLang); err != nil {
			return fmt.Errorf("invalid source language %q: %w", c.SourceLang, err)
		}
	}
	if _, err := markdown.CompilePatterns(c.SkipPatterns, c.ExpandPatterns); err != nil {
		return err
	}
	if c.Proxy.Enable && c.Proxy.Address == "" {
		return fmt.Errorf("proxy is enabled but no address is configured")
	}
	return nil
}

func parseTag(lang string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
}

// ParseOptions 构建文档解析选项
func (c *Config) ParseOptions() (markdown.ParseOptions, error) {
	patterns, err := markdown.CompilePatterns(c.SkipPatterns, c.ExpandPatterns)
	if err != nil {
		return markdown.ParseOptions{}, err
	}
	return markdown.ParseOptions{
		Tokenizer: markdown.TokenizerOptions{
			TransparentKeys:     c.FrontMatter.TransparentKeys,
			KeyValueKeys:        c.FrontMatter.KeyValueKeys,
			ArrayKeys:           c.FrontMatter.ArrayKeys,
			TransparentPrefixes: c.TransparentPrefixes,
			InsertWarning:       c.InsertWarnings,
		},
		ChunkSize: c.ChunkSize,
		Patterns:  patterns,
	}, nil
}

// ProxyURL 返回代理地址，未启用时为空
func (c *Config) ProxyURL() string {
	if !c.Proxy.Enable || c.Proxy.Address == "" {
		return ""
	}
	scheme := c.Proxy.Scheme
	if scheme == "" {
		scheme = "socks5"
	}
	host := c.Proxy.Address
	if c.Proxy.Port > 0 {
		host = host + ":" + strconv.Itoa(c.Proxy.Port)
	}
	u := url.URL{Scheme: scheme, Host: host}
	if c.Proxy.Username != "" {
		u.User = url.UserPassword(c.Proxy.Username, c.Proxy.Password)
	}
	return u.String()
}

// getDefaultCacheDir 获取默认缓存目录
func getDefaultCacheDir() string {
	cacheDir, err := os.UserCacheDir()
	if err == nil {
		return filepath.Join(cacheDir, "mdtrans")
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".mdtrans", "cache")
	}

	return "./mdtrans-cache"
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("source_lang", d.SourceLang)
	v.SetDefault("target_langs", d.TargetLangs)
	v.SetDefault("compact_langs", d.CompactLangs)
	v.SetDefault("warnings", d.Warnings)
	v.SetDefault("insert_warnings", d.InsertWarnings)
	v.SetDefault("source_filenames", d.SourceFilenames)

	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("backoff_base", d.BackoffBase)

	v.SetDefault("front_matter.transparent_keys", d.FrontMatter.TransparentKeys)
	v.SetDefault("front_matter.key_value_keys", d.FrontMatter.KeyValueKeys)
	v.SetDefault("front_matter.key_value_array_keys", d.FrontMatter.ArrayKeys)
	v.SetDefault("transparent_prefixes", d.TransparentPrefixes)
	v.SetDefault("skip_patterns", d.SkipPatterns)
	v.SetDefault("expand_patterns", d.ExpandPatterns)

	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.endpoint", "")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.timeout", d.Provider.Timeout)
	v.SetDefault("provider.max_retries", d.Provider.MaxRetries)
	v.SetDefault("provider.retry_delay", d.Provider.RetryDelay)

	v.SetDefault("proxy.enable", d.Proxy.Enable)
	v.SetDefault("proxy.scheme", d.Proxy.Scheme)
	v.SetDefault("proxy.address", d.Proxy.Address)
	v.SetDefault("proxy.port", d.Proxy.Port)

	v.SetDefault("use_cache", d.UseCache)
	v.SetDefault("cache_dir", "")
	v.SetDefault("verify", d.Verify)
	v.SetDefault("stats_file", "")
	v.SetDefault("debug", false)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", "")
	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("serve.upload_dir", "")
	v.SetDefault("serve.max_upload_size", d.Serve.MaxUploadSize)
}
