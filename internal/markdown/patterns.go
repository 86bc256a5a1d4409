package markdown

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// DefaultSkipPatterns 默认的跳过翻译模式：加粗符号、标题井号、行内代码、反引号、
// 引号包裹的非中文内容、表格竖线、行首列表短横线、表格对齐行的短横线、单独成行的标点以及换行符
var DefaultSkipPatterns = []string{
	`\*\*。?`,
	`#+`,
	"`[^`\\n\\u4E00-\\u9FFF]*?`",
	"`",
	`"[^"\n\u4E00-\u9FFF]*?"`,
	`\|`,
	`^ *-+`,
	`:?-{3,}:?`,
	`^[\.,\?!;。，？！；、]$`,
	`\n`,
}

// DefaultExpandPatterns 非紧凑型语言中需要与前后文本以空格分隔的片段：
// 行内代码、引号、加粗以及图片/链接
var DefaultExpandPatterns = []string{
	"`[^`]+?`",
	`".*?"`,
	`\*\*.*?\*\*`,
	`\[!\[.*?]\(.*?\)]\(.*?\)|!?\[.*?]\(.*?\)`,
}

// imageOrLinkPattern 匹配图片、链接以及嵌套了图片的链接
const imageOrLinkPattern = `\[!\[(.*?)]\((.*?)\)]\((.*?)\)|(!?)\[(.*?)]\((.*?)\)`

var imageOrLinkRegexp = regexp2.MustCompile(imageOrLinkPattern, regexp2.None)

// Patterns 编译后的跳过模式和扩展模式
type Patterns struct {
	Skip   *regexp2.Regexp
	Expand *regexp2.Regexp
}

// CompilePatterns 将模式列表编译为两条交替正则
func CompilePatterns(skip, expand []string) (*Patterns, error) {
	skipRe, err := CompileAlternation(skip, regexp2.Multiline)
	if err != nil {
		return nil, fmt.Errorf("compile skip patterns: %w", err)
	}
	expandRe, err := CompileAlternation(expand, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile expand patterns: %w", err)
	}
	return &Patterns{Skip: skipRe, Expand: expandRe}, nil
}

// DefaultPatterns 返回默认模式
func DefaultPatterns() *Patterns {
	p, err := CompilePatterns(DefaultSkipPatterns, DefaultExpandPatterns)
	if err != nil {
		panic("markdown: invalid default patterns: " + err.Error())
	}
	return p
}

// CompileAlternation 把多条正则合并为一条交替表达式
func CompileAlternation(patterns []string, opts regexp2.RegexOptions) (*regexp2.Regexp, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("empty pattern list")
	}
	parts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if _, err := regexp2.Compile(p, opts); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		parts = append(parts, "(?:"+p+")")
	}
	return regexp2.Compile(strings.Join(parts, "|"), opts)
}

// splitAlternating 按正则切分文本并保留匹配部分。
// 返回值长度恒为奇数：偶数下标为普通片段（可能为空），奇数下标为匹配片段。
func splitAlternating(re *regexp2.Regexp, s string) ([]string, error) {
	runes := []rune(s)
	parts := make([]string, 0, 3)
	last := 0
	m, err := re.FindRunesMatch(runes)
	for m != nil {
		if m.Length > 0 {
			parts = append(parts, string(runes[last:m.Index]), string(runes[m.Index:m.Index+m.Length]))
			last = m.Index + m.Length
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, err
	}
	parts = append(parts, string(runes[last:]))
	return parts, nil
}

// fragment 切分后的片段
type fragment struct {
	Text  string
	Match bool
}

// splitKeep 按正则切分文本，丢弃空片段
func splitKeep(re *regexp2.Regexp, s string) ([]fragment, error) {
	parts, err := splitAlternating(re, s)
	if err != nil {
		return nil, err
	}
	frags := make([]fragment, 0, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		frags = append(frags, fragment{Text: p, Match: i%2 == 1})
	}
	return frags, nil
}
