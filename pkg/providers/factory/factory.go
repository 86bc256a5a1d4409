package factory

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/deepl"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/deeplx"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/google"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/libretranslate"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/ollama"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/raw"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/retry"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/stats"
)

// ProviderFactory 提供商工厂
type ProviderFactory struct {
	registry *providers.Registry
	aliases  map[string]string
	proxyURL string
	stats    *stats.StatsManager
	logger   *zap.Logger
}

// Option 工厂选项
type Option func(*ProviderFactory)

// WithProxy 所有提供商通过该代理访问网络，支持 socks5:// 与 http(s)://
func WithProxy(proxyURL string) Option {
	return func(f *ProviderFactory) {
		f.proxyURL = proxyURL
	}
}

// WithStats 为创建的提供商包一层统计中间件
func WithStats(sm *stats.StatsManager) Option {
	return func(f *ProviderFactory) {
		f.stats = sm
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(f *ProviderFactory) {
		f.logger = logger
	}
}

// New 创建新的提供商工厂并注册内置提供商
func New(opts ...Option) *ProviderFactory {
	f := &ProviderFactory{
		registry: providers.NewRegistry(),
		aliases:  map[string]string{"none": "raw", "libre": "libretranslate"},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	registerBuiltins(f.registry)
	return f
}

func registerBuiltins(r *providers.Registry) {
	_ = r.Register("google", func(cfg providers.BaseConfig, _ providers.Options) (providers.Provider, error) {
		return google.New(google.Config{BaseConfig: cfg}), nil
	})
	_ = r.Register("deeplx", func(cfg providers.BaseConfig, _ providers.Options) (providers.Provider, error) {
		return deeplx.New(deeplx.Config{BaseConfig: cfg}), nil
	})
	_ = r.Register("deepl", func(cfg providers.BaseConfig, _ providers.Options) (providers.Provider, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("deepl requires an API key")
		}
		return deepl.New(deepl.Config{BaseConfig: cfg}), nil
	})
	_ = r.Register("libretranslate", func(cfg providers.BaseConfig, _ providers.Options) (providers.Provider, error) {
		return libretranslate.New(libretranslate.Config{BaseConfig: cfg}), nil
	})
	_ = r.Register("openai", func(cfg providers.BaseConfig, opts providers.Options) (providers.Provider, error) {
		if cfg.APIKey == "" && cfg.APIEndpoint == "" {
			return nil, fmt.Errorf("openai requires an API key")
		}
		c := openai.DefaultConfig()
		c.BaseConfig = cfg
		if opts.Model != "" {
			c.Model = opts.Model
		}
		if opts.Temperature > 0 {
			c.Temperature = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			c.MaxTokens = opts.MaxTokens
		}
		return openai.New(c), nil
	})
	_ = r.Register("ollama", func(cfg providers.BaseConfig, opts providers.Options) (providers.Provider, error) {
		c := ollama.DefaultConfig()
		c.BaseConfig = cfg
		if opts.Model != "" {
			c.Model = opts.Model
		}
		if opts.Temperature > 0 {
			c.Temperature = float32(opts.Temperature)
		}
		if opts.MaxTokens > 0 {
			c.MaxTokens = opts.MaxTokens
		}
		return ollama.New(c), nil
	})
	_ = r.Register("raw", func(cfg providers.BaseConfig, _ providers.Options) (providers.Provider, error) {
		return raw.New(raw.Config{BaseConfig: cfg}), nil
	})
}

// Register 注册自定义提供商
func (f *ProviderFactory) Register(name string, ctor providers.Constructor) error {
	return f.registry.Register(name, ctor)
}

// CreateProvider 根据配置创建提供商
func (f *ProviderFactory) CreateProvider(name string, pc config.ProviderConfig) (providers.Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := f.aliases[name]; ok {
		name = alias
	}
	if !f.registry.Has(name) {
		return nil, f.unknownProvider(name)
	}

	httpClient, err := f.newHTTPClient(pc)
	if err != nil {
		return nil, err
	}

	base := providers.DefaultConfig()
	base.APIKey = pc.APIKey
	base.APIEndpoint = pc.Endpoint
	if pc.Timeout > 0 {
		base.Timeout = pc.Timeout
	}
	base.MaxRetries = pc.MaxRetries
	if pc.RetryDelay > 0 {
		base.RetryDelay = pc.RetryDelay
	}
	base.ProxyURL = f.proxyURL
	for k, v := range pc.Headers {
		base.Headers[k] = v
	}
	base.HTTPClient = httpClient

	p, err := f.registry.Create(name, base, providers.Options{
		Model:       pc.Model,
		Temperature: pc.Temperature,
		MaxTokens:   pc.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create provider %s: %w", name, err)
	}

	f.logger.Debug("provider created",
		zap.String("provider", name),
		zap.String("endpoint", pc.Endpoint),
		zap.String("model", pc.Model),
		zap.Bool("proxy", f.proxyURL != ""))

	if f.stats != nil {
		return stats.NewStatisticsMiddleware(p, f.stats, name, pc.Model), nil
	}
	return p, nil
}

// GetSupportedProviders 获取支持的提供商列表
func (f *ProviderFactory) GetSupportedProviders() []string {
	return f.registry.List()
}

// unknownProvider 生成带候选建议的错误
func (f *ProviderFactory) unknownProvider(name string) error {
	suggestions := Suggest(name, f.registry.List())
	if len(suggestions) == 0 {
		return fmt.Errorf("unsupported provider %q (available: %s)", name, strings.Join(f.registry.List(), ", "))
	}
	return fmt.Errorf("unsupported provider %q, did you mean %s?", name, strings.Join(suggestions, " or "))
}

// Suggest 返回与 name 相近的候选名称
func Suggest(name string, candidates []string) []string {
	if name == "" {
		return nil
	}

	ranks := fuzzy.RankFindFold(name, candidates)
	sort.Sort(ranks)
	seen := make(map[string]bool)
	var out []string
	for _, r := range ranks {
		if !seen[r.Target] {
			seen[r.Target] = true
			out = append(out, r.Target)
		}
	}

	// 拼写错误时子序列匹配不到，退回编辑距离
	for _, c := range candidates {
		if !seen[c] && fuzzy.LevenshteinDistance(strings.ToLower(name), c) <= 2 {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// newHTTPClient 构建带代理与传输层重试的 HTTP 客户端
func (f *ProviderFactory) newHTTPClient(pc config.ProviderConfig) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if f.proxyURL != "" {
		u, err := url.Parse(f.proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		switch u.Scheme {
		case "socks5", "socks5h":
			dialer, err := proxy.FromURL(u, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("create socks5 dialer: %w", err)
			}
			transport.Proxy = nil
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				}
			}
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
	}

	retryConfig := retry.DefaultRetryConfig()
	retryConfig.MaxRetries = pc.MaxRetries
	if pc.RetryDelay > 0 {
		retryConfig.InitialDelay = pc.RetryDelay
	}

	timeout := pc.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: retry.NewTransport(transport, retryConfig),
	}, nil
}

// DefaultFactory 全局工厂实例
var DefaultFactory = New()

// CreateProvider 使用默认工厂创建提供商
func CreateProvider(name string, pc config.ProviderConfig) (providers.Provider, error) {
	return DefaultFactory.CreateProvider(name, pc)
}
