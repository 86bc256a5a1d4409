package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

// DefaultEndpoint Ollama 的 OpenAI 兼容接口
const DefaultEndpoint = "http://localhost:11434/v1"

// Config Ollama配置
type Config struct {
	providers.BaseConfig
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "llama3",
		Temperature: 0.3,
		MaxTokens:   4096,
	}
	config.APIEndpoint = DefaultEndpoint
	return config
}

// Provider Ollama提供商
type Provider struct {
	config Config
	client *openai.Client
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的Ollama提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = DefaultEndpoint
	}
	// Ollama 不校验密钥，但 go-openai 需要一个非空值
	key := config.APIKey
	if key == "" {
		key = "ollama"
	}

	clientConfig := openai.DefaultConfig(key)
	// go-openai 的路径以斜杠开头，避免出现双斜杠
	clientConfig.BaseURL = strings.TrimSuffix(config.APIEndpoint, "/")
	clientConfig.HTTPClient = config.Client()

	return &Provider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: providers.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: providers.BuildUserPrompt(req)},
		},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	})
	if err != nil {
		return nil, convertError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, providers.NewError(providers.ErrCodeBadResponse, "no choices returned from ollama")
	}

	return &providers.ProviderResponse{
		Text:      providers.CleanLLMOutput(resp.Choices[0].Message.Content),
		Model:     resp.Model,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "ollama"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:      8000,
		RequiresAPIKey:     false,
		SupportsAutoDetect: true,
		IsLLM:              true,
	}
}

// HealthCheck 列出模型并确认配置的模型存在
func (p *Provider) HealthCheck(ctx context.Context) error {
	models, err := p.client.ListModels(ctx)
	if err != nil {
		return convertError(err)
	}
	for _, m := range models.Models {
		if m.ID == p.config.Model || strings.TrimSuffix(m.ID, ":latest") == p.config.Model {
			return nil
		}
	}
	return providers.NewError(providers.ErrCodeBadRequest, fmt.Sprintf("model %s not found on %s", p.config.Model, p.config.APIEndpoint))
}

func convertError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return providers.NewStatusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return providers.NewStatusError(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return providers.NewError(providers.ErrCodeNetwork, err.Error())
}
