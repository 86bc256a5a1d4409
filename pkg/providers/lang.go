package providers

import (
	"strings"

	"golang.org/x/text/language"
)

// AutoDetect 自动检测源语言
const AutoDetect = "auto"

// IsAuto 是否表示自动检测
func IsAuto(code string) bool {
	c := strings.ToLower(strings.TrimSpace(code))
	return c == "" || c == AutoDetect
}

// NormalizeTag 将 zh_tw、ZH-tw 等写法规范为 BCP 47 形式（zh-TW），无法解析时原样返回
func NormalizeTag(code string) string {
	if IsAuto(code) {
		return AutoDetect
	}
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}

// BaseLanguage 返回主语言标签，例如 zh-TW -> zh
func BaseLanguage(code string) string {
	if IsAuto(code) {
		return AutoDetect
	}
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	return base.String()
}

// IsTraditionalChinese 是否为繁体中文
func IsTraditionalChinese(code string) bool {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return false
	}
	script, _ := tag.Script()
	return script.String() == "Hant"
}
