package markdown

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

const (
	fullWidthSymbols = "！＂＃％＆＇（）＊＋，－。．／：；＜＝＞？＠［＼］＾＿｀｛｜｝～‘’”“【】《》￥、"
	halfWidthSymbols = "!\"#%&'()*+,-../:;<=>?@[\\]^_`{|}~''\"\"[]<>$,"
)

var fullToHalfReplacer = newSymbolReplacer()

func newSymbolReplacer() *strings.Replacer {
	full := []rune(fullWidthSymbols)
	half := []rune(halfWidthSymbols)
	if len(full) != len(half) {
		panic("markdown: symbol tables differ in length")
	}
	pairs := make([]string, 0, 2*len(full))
	for i := range full {
		pairs = append(pairs, string(full[i]), string(half[i]))
	}
	return strings.NewReplacer(pairs...)
}

// FullToHalf 将全角标点转换为半角标点
func FullToHalf(text string) string {
	return fullToHalfReplacer.Replace(text)
}

// HalfToFull 将 ASCII 标点转换为对应的全角标点，字母、数字和空白保持不变
func HalfToFull(text string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x80 || !(unicode.IsPunct(r) || unicode.IsSymbol(r)) {
			return r
		}
		if w := width.LookupRune(r).Wide(); w != 0 {
			return w
		}
		return r
	}, text)
}
