package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const (
	// punctuation 一般边界标点，包含空格和换行
	punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~" + "；，。、？ 、【】·！￥…—‘“”’《》\n"
	// stopPunctuation 句子结束标点
	stopPunctuation = ".!?。！？：:；;\n"
	// commas 上一行以逗号结尾时下一行首字母小写
	commas = ",，"
)

// Spacer 为非紧凑型语言修复译文中特殊片段两侧的空格和首字母大小写
type Spacer struct {
	expand  *regexp2.Regexp
	compact map[string]bool
}

// NewSpacer 创建 Spacer，compactLangs 中的语言不做处理
func NewSpacer(expand *regexp2.Regexp, compactLangs []string) *Spacer {
	compact := make(map[string]bool, len(compactLangs))
	for _, l := range compactLangs {
		compact[strings.ToLower(l)] = true
	}
	return &Spacer{expand: expand, compact: compact}
}

// IsCompact 是否为紧凑型语言
func (s *Spacer) IsCompact(lang string) bool {
	return s.compact[strings.ToLower(lang)]
}

// Normalize 逐行处理文本，空行和紧凑型语言原样返回
func (s *Spacer) Normalize(text, lang string) string {
	if s.IsCompact(lang) {
		return text
	}
	lines := strings.Split(text, "\n")
	s.normalizeLines(lines, 0)
	return strings.Join(lines, "\n")
}

// normalizeLines 原地处理各行。last 为上一行的末字符，返回处理后最后一个非空行的末字符
func (s *Spacer) normalizeLines(lines []string, last rune) rune {
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts, err := splitAlternating(s.expand, line)
		if err != nil {
			continue
		}
		lines[i] = expandLine(parts, last)
		if tail := parts[len(parts)-1]; tail != "" {
			last, _ = utf8.DecodeLastRuneInString(tail)
		}
	}
	return last
}

// expandLine 处理一行的交替片段，偶数下标为普通文本，奇数下标为特殊片段
func expandLine(parts []string, last rune) string {
	var sb strings.Builder
	for p, part := range parts {
		if p == 0 {
			if last != 0 && strings.ContainsRune(commas, last) {
				part = lowerFirst(part)
			}
		} else if notStop(parts[p-1]) {
			part = lowerFirst(part)
		}

		if p%2 == 1 {
			prev, next := parts[p-1], parts[p+1]
			if prev != "" {
				if r, _ := utf8.DecodeLastRuneInString(prev); !strings.ContainsRune(punctuation, r) {
					part = " " + part
				}
			}
			if next != "" {
				if r, _ := utf8.DecodeRuneInString(next); !strings.ContainsRune(punctuation, r) {
					part += " "
				}
			} else if p+2 < len(parts) {
				part += " "
			}
		}
		sb.WriteString(part)
	}
	return sb.String()
}

// notStop 判断片段末字符是否不是句子结束标点，空白片段视为非标点
func notStop(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return !strings.ContainsRune(stopPunctuation, r)
}

// lowerFirst 首个单词不是全大写时，将首字母转为小写
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	word, _, _ := strings.Cut(s, " ")
	if isUpper(word) {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// isUpper 至少含一个字母且所有字母均为大写
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			cased = true
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		}
	}
	return cased
}
