package google

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
	// CloudEndpoint Cloud Translation v2 接口，需要 API Key
	CloudEndpoint = "https://translation.googleapis.com/language/translate/v2"
	// FreeEndpoint 网页版使用的免费接口，无需 API Key
	FreeEndpoint = "https://translate.googleapis.com/translate_a/single"
)

// Config Google Translate配置
type Config struct {
	providers.BaseConfig
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig: providers.DefaultConfig(),
	}
}

// Provider Google Translate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
}

// New 创建新的Google Translate提供商。
// 未配置 API Key 时走免费接口。
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		if config.APIKey != "" {
			config.APIEndpoint = CloudEndpoint
		} else {
			config.APIEndpoint = FreeEndpoint
		}
	}

	return &Provider{
		config:     config,
		httpClient: config.Client(),
	}
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	source := normalizeLanguageCode(req.SourceLanguage)
	target := normalizeLanguageCode(req.TargetLanguage)

	if p.config.APIKey == "" {
		return p.translateFree(ctx, req.Text, source, target)
	}

	resp, err := p.translateCloud(ctx, TranslateRequest{
		Q:      req.Text,
		Source: source,
		Target: target,
		Format: "text",
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data.Translations) == 0 {
		return nil, providers.NewError(providers.ErrCodeBadResponse, "no translation returned")
	}

	return &providers.ProviderResponse{
		Text:           resp.Data.Translations[0].TranslatedText,
		DetectedSource: resp.Data.Translations[0].DetectedSourceLanguage,
		Model:          "google-translate",
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "google"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:      5000,
		RequiresAPIKey:     false,
		SupportsAutoDetect: true,
		RateLimit: &providers.RateLimit{
			RequestsPerMinute: 600,
			CharactersPerDay:  500000,
		},
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.Translate(ctx, &providers.ProviderRequest{
		Text:           "Hello",
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	return err
}

// translateCloud 调用 Cloud Translation v2
func (p *Provider) translateCloud(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	params := url.Values{}
	params.Set("key", p.config.APIKey)
	params.Set("q", req.Q)
	if req.Source != "" {
		params.Set("source", req.Source)
	}
	params.Set("target", req.Target)
	params.Set("format", req.Format)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	p.config.SetHeaders(httpReq)

	body, err := p.do(httpReq)
	if err != nil {
		return nil, err
	}

	var translateResp TranslateResponse
	if err := json.Unmarshal(body, &translateResp); err != nil {
		return nil, providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	return &translateResp, nil
}

// translateFree 调用免费接口，响应是嵌套数组：
// [[["译文","原文",...],...],null,"en",...]
func (p *Provider) translateFree(ctx context.Context, text, source, target string) (*providers.ProviderResponse, error) {
	if source == "" {
		source = "auto"
	}
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	p.config.SetHeaders(httpReq)

	body, err := p.do(httpReq)
	if err != nil {
		return nil, err
	}

	translated, detected, err := parseFreeResponse(body)
	if err != nil {
		return nil, err
	}
	return &providers.ProviderResponse{
		Text:           translated,
		DetectedSource: detected,
		Model:          "google-translate-free",
	}, nil
}

func (p *Provider) do(req *http.Request) ([]byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, providers.NewError(providers.ErrCodeNetwork, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.NewError(providers.ErrCodeNetwork, fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, providers.NewStatusError(resp.StatusCode, "Google API error: "+apiErr.Error.Message)
		}
		return nil, providers.NewStatusError(resp.StatusCode, resp.Status)
	}
	return body, nil
}

func parseFreeResponse(body []byte) (string, string, error) {
	var raw []interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", "", providers.NewError(providers.ErrCodeBadResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	if len(raw) == 0 {
		return "", "", providers.NewError(providers.ErrCodeBadResponse, "empty response")
	}

	segments, ok := raw[0].([]interface{})
	if !ok {
		return "", "", providers.NewError(providers.ErrCodeBadResponse, "unexpected response layout")
	}

	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]interface{})
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}

	var detected string
	if len(raw) > 2 {
		detected, _ = raw[2].(string)
	}
	return sb.String(), detected, nil
}

// normalizeLanguageCode Google 使用小写主语言，中文区分简繁
func normalizeLanguageCode(lang string) string {
	if providers.IsAuto(lang) {
		return ""
	}
	base := providers.BaseLanguage(lang)
	if base == "zh" {
		if providers.IsTraditionalChinese(lang) {
			return "zh-TW"
		}
		return "zh-CN"
	}
	return base
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Q      string `json:"q"`      // 要翻译的文本
	Source string `json:"source"` // 源语言
	Target string `json:"target"` // 目标语言
	Format string `json:"format"` // 文本格式：text 或 html
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
		} `json:"translations"`
	} `json:"data"`
}

// APIError API错误
type APIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
