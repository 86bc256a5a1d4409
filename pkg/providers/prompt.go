package providers

import (
	"fmt"
	"strings"
)

// SystemPrompt 大模型翻译的系统提示词
const SystemPrompt = "You are a professional translator. Translate accurately while preserving the original meaning and tone. " +
	"Every input line is an independent fragment: return exactly one translated line per input line, in the same order, " +
	"without merging, splitting, numbering, or adding explanations."

// LanguageName 用于提示词的语言名称，auto 返回 "the detected language"
func LanguageName(code string) string {
	if IsAuto(code) {
		return "the detected language"
	}
	return NormalizeTag(code)
}

// BuildUserPrompt 构建用户提示词，写明行数方便模型对齐
func BuildUserPrompt(req *ProviderRequest) string {
	lines := strings.Count(req.Text, "\n") + 1
	return fmt.Sprintf("Translate the following %d line(s) from %s to %s. Only return the translated text:\n\n%s",
		lines, LanguageName(req.SourceLanguage), LanguageName(req.TargetLanguage), req.Text)
}

// CleanLLMOutput 去掉模型常见的代码块包裹与首尾空行
func CleanLLMOutput(text string) string {
	text = strings.Trim(text, "\r\n")
	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		if i := strings.Index(text, "\n"); i >= 0 {
			text = strings.TrimSuffix(text[i+1:], "```")
			text = strings.Trim(text, "\r\n")
		}
	}
	return text
}
