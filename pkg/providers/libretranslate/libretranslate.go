package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

// DefaultEndpoint 公共 LibreTranslate 实例
const DefaultEndpoint = "https://libretranslate.com"

// Config LibreTranslate配置
type Config struct {
	providers.BaseConfig
	RequiresAPIKey bool `json:"requires_api_key"` // 服务器是否需要API密钥
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
	}
	config.APIEndpoint = DefaultEndpoint
	return config
}

// Provider LibreTranslate提供商
type Provider struct {
	config     Config
	httpClient *http.Client

	mu        sync.RWMutex
	languages []Language
}

// New 创建新的LibreTranslate提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = DefaultEndpoint
	}
	config.APIEndpoint = strings.TrimRight(config.APIEndpoint, "/")
	if config.APIKey != "" {
		config.RequiresAPIKey = true
	}

	return &Provider{
		config:     config,
		httpClient: config.Client(),
	}
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	source := p.normalizeLanguageCode(req.SourceLanguage)
	if source == "" {
		source = providers.AutoDetect
	}

	resp, err := p.translate(ctx, TranslateRequest{
		Q:      req.Text,
		Source: source,
		Target: p.normalizeLanguageCode(req.TargetLanguage),
		Format: "text",
		APIKey: p.config.APIKey,
	})
	if err != nil {
		return nil, err
	}

	out := &providers.ProviderResponse{
		Text:  resp.TranslatedText,
		Model: "libretranslate",
	}
	if resp.DetectedLanguage != nil {
		out.DetectedSource = resp.DetectedLanguage.Language
	}
	return out, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "libretranslate"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:      5000,
		RequiresAPIKey:     p.config.RequiresAPIKey,
		SupportsAutoDetect: true,
	}
}

// HealthCheck 获取语言列表作为健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.fetchLanguages(ctx)
}

// translate 执行翻译请求
func (p *Provider) translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint+"/translate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	p.config.SetHeaders(httpReq)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewError(providers.ErrCodeNetwork, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.NewError(providers.ErrCodeNetwork, fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error != "" {
			return nil, providers.NewStatusError(resp.StatusCode, "API error: "+errorResp.Error)
		}
		return nil, providers.NewStatusError(resp.StatusCode, "API error: "+resp.Status)
	}

	var translateResp TranslateResponse
	if err := json.Unmarshal(respBody, &translateResp); err != nil {
		return nil, providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	return &translateResp, nil
}

// fetchLanguages 获取支持的语言列表
func (p *Provider) fetchLanguages(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/languages", nil)
	if err != nil {
		return err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return providers.NewError(providers.ErrCodeNetwork, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providers.NewStatusError(resp.StatusCode, "failed to fetch languages: "+resp.Status)
	}

	var languages []Language
	if err := json.NewDecoder(resp.Body).Decode(&languages); err != nil {
		return providers.NewError(providers.ErrCodeBadResponse, err.Error())
	}

	p.mu.Lock()
	p.languages = languages
	p.mu.Unlock()
	return nil
}

// Languages 返回最近一次获取到的语言列表
func (p *Provider) Languages() []Language {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Language(nil), p.languages...)
}

// normalizeLanguageCode 优先使用服务端公布的代码（如 zh-Hant），否则退回主语言
func (p *Provider) normalizeLanguageCode(lang string) string {
	if providers.IsAuto(lang) {
		return ""
	}
	tag := providers.NormalizeTag(lang)

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, l := range p.languages {
		if strings.EqualFold(l.Code, tag) {
			return l.Code
		}
	}
	return providers.BaseLanguage(lang)
}

// Language 语言信息
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Q      string `json:"q"`                 // 要翻译的文本
	Source string `json:"source"`            // 源语言
	Target string `json:"target"`            // 目标语言
	Format string `json:"format"`            // 文本格式
	APIKey string `json:"api_key,omitempty"` // API密钥（如果需要）
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Confidence float64 `json:"confidence"`
		Language   string  `json:"language"`
	} `json:"detectedLanguage,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}
