package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

const (
	ProEndpoint  = "https://api.deepl.com/v2"
	FreeEndpoint = "https://api-free.deepl.com/v2"
)

// Config DeepL配置
type Config struct {
	providers.BaseConfig
	UseFreeAPI bool   `json:"use_free_api"` // 是否使用免费API
	Formality  string `json:"formality,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
	}
	config.APIEndpoint = ProEndpoint
	return config
}

// Provider DeepL提供商
type Provider struct {
	config     Config
	httpClient *http.Client
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的DeepL提供商。免费版密钥以 ":fx" 结尾。
func New(config Config) *Provider {
	if strings.HasSuffix(config.APIKey, ":fx") {
		config.UseFreeAPI = true
	}
	if config.APIEndpoint == "" {
		if config.UseFreeAPI {
			config.APIEndpoint = FreeEndpoint
		} else {
			config.APIEndpoint = ProEndpoint
		}
	}
	config.APIEndpoint = strings.TrimRight(config.APIEndpoint, "/")

	return &Provider{
		config:     config,
		httpClient: config.Client(),
	}
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	params := url.Values{}
	params.Set("text", req.Text)
	if source := normalizeLanguageCode(req.SourceLanguage, true); source != "" {
		params.Set("source_lang", source)
	}
	params.Set("target_lang", normalizeLanguageCode(req.TargetLanguage, false))
	// 保留换行，否则行数对不上
	params.Set("split_sentences", "nonewlines")
	params.Set("preserve_formatting", "1")
	if p.config.Formality != "" {
		params.Set("formality", p.config.Formality)
	}

	resp, err := p.translate(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Translations) == 0 {
		return nil, providers.NewError(providers.ErrCodeBadResponse, "no translation returned")
	}

	return &providers.ProviderResponse{
		Text:           resp.Translations[0].Text,
		DetectedSource: resp.Translations[0].DetectedSourceLanguage,
		Model:          "deepl",
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "deepl"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:      130000,
		RequiresAPIKey:     true,
		SupportsAutoDetect: true,
		RateLimit: &providers.RateLimit{
			CharactersPerDay: 500000,
		},
	}
}

// HealthCheck 通过查询用量检查密钥是否可用
func (p *Provider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/usage", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return providers.NewError(providers.ErrCodeNetwork, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providers.NewStatusError(resp.StatusCode, "health check failed: "+resp.Status)
	}
	return nil
}

// translate 执行翻译请求
func (p *Provider) translate(ctx context.Context, params url.Values) (*TranslateResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint+"/translate", strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)
	p.config.SetHeaders(httpReq)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewError(providers.ErrCodeNetwork, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var translateResp TranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&translateResp); err != nil {
		return nil, providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	return &translateResp, nil
}

// statusError 处理 DeepL 特有的状态码
func statusError(status int, body string) *providers.Error {
	switch status {
	case http.StatusForbidden:
		return providers.NewStatusError(status, "authentication failed")
	case http.StatusRequestEntityTooLarge:
		return providers.NewStatusError(status, "request size exceeded")
	case 456:
		e := providers.NewStatusError(status, "quota exceeded")
		e.Code = providers.ErrCodeRateLimit
		return e
	default:
		if body == "" {
			body = http.StatusText(status)
		}
		return providers.NewStatusError(status, body)
	}
}

// normalizeLanguageCode 标准化语言代码为DeepL格式
func normalizeLanguageCode(lang string, isSource bool) string {
	if providers.IsAuto(lang) {
		return ""
	}

	upper := strings.ToUpper(providers.BaseLanguage(lang))
	if isSource {
		return upper
	}

	// 目标语言需要指定变体
	switch upper {
	case "EN":
		if strings.EqualFold(providers.NormalizeTag(lang), "en-GB") {
			return "EN-GB"
		}
		return "EN-US"
	case "PT":
		if strings.EqualFold(providers.NormalizeTag(lang), "pt-PT") {
			return "PT-PT"
		}
		return "PT-BR"
	case "ZH":
		if providers.IsTraditionalChinese(lang) {
			return "ZH-HANT"
		}
		return "ZH-HANS"
	}
	return upper
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}
