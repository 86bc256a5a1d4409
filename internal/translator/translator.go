package translator

import (
	"context"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

// Translator 文本翻译能力，text 中每行是一个独立的待翻译片段
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	Name() string
}

// TranslatorFunc 函数形式的 Translator
type TranslatorFunc func(ctx context.Context, text, sourceLang, targetLang string) (string, error)

func (f TranslatorFunc) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return f(ctx, text, sourceLang, targetLang)
}

func (f TranslatorFunc) Name() string { return "func" }

// ProviderTranslator 将翻译提供商适配为 Translator
type ProviderTranslator struct {
	provider providers.TranslationProvider
}

// NewProviderTranslator 创建提供商适配器
func NewProviderTranslator(p providers.TranslationProvider) *ProviderTranslator {
	return &ProviderTranslator{provider: p}
}

// Translate 调用提供商翻译，nil 响应视为空结果
func (t *ProviderTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := t.provider.Translate(ctx, &providers.ProviderRequest{
		Text:           text,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrEmptyResult
	}
	return resp.Text, nil
}

// Name 提供商名称
func (t *ProviderTranslator) Name() string {
	return t.provider.GetName()
}
