package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// PredefinedTranslation 预定义翻译：源片段完全匹配时强制使用给定译文
type PredefinedTranslation struct {
	SourceLang   string            `toml:"source_lang"`
	TargetLang   string            `toml:"target_lang"`
	Translations map[string]string `toml:"translations"`
}

func NewPredefinedTranslation(sourceLang, targetLang string, translations map[string]string) *PredefinedTranslation {
	return &PredefinedTranslation{
		SourceLang:   sourceLang,
		TargetLang:   targetLang,
		Translations: translations,
	}
}

func LoadPredefinedTranslations(path string) (*PredefinedTranslation, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("predefined translations file not found: %s", path)
	}

	translations := &PredefinedTranslation{}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read predefined translations file: %w", err)
	}
	if err := toml.Unmarshal(content, translations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal predefined translations: %w", err)
	}
	if translations.SourceLang == "" || translations.TargetLang == "" {
		return nil, fmt.Errorf("predefined translations file is missing source_lang or target_lang")
	}
	return translations, nil
}

// matches source 为 auto 时匹配任意源语言
func (p *PredefinedTranslation) matches(sourceLang, targetLang string) bool {
	if !strings.EqualFold(p.TargetLang, targetLang) {
		return false
	}
	return strings.EqualFold(p.SourceLang, "auto") || strings.EqualFold(p.SourceLang, sourceLang)
}

// Glossary 多个预定义翻译文件的集合
type Glossary struct {
	entries []*PredefinedTranslation
}

// LoadGlossary 加载全部预定义翻译文件
func LoadGlossary(paths []string) (*Glossary, error) {
	g := &Glossary{}
	for _, path := range paths {
		p, err := LoadPredefinedTranslations(path)
		if err != nil {
			return nil, err
		}
		g.Add(p)
	}
	return g, nil
}

// Add 添加一组预定义翻译
func (g *Glossary) Add(p *PredefinedTranslation) {
	g.entries = append(g.entries, p)
}

// Len 条目总数
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, e := range g.entries {
		n += len(e.Translations)
	}
	return n
}

// Lookup 查找 text 在指定语言对下的预定义译文，text 会先去掉首尾空白
func (g *Glossary) Lookup(sourceLang, targetLang, text string) (string, bool) {
	if g == nil {
		return "", false
	}
	key := strings.TrimSpace(text)
	for _, e := range g.entries {
		if !e.matches(sourceLang, targetLang) {
			continue
		}
		if v, ok := e.Translations[key]; ok {
			return v, true
		}
	}
	return "", false
}
