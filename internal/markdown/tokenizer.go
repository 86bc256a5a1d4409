package markdown

import (
	"strings"
)

const (
	frontMatterDelimiter = "---"
	codeFence            = "```"
	noTranslateMarker    = "__do_not_translate__"
	mathDelimiter        = "$$"
)

// TokenizerOptions 行扫描配置
type TokenizerOptions struct {
	// TransparentKeys front matter 中原样保留的键前缀
	TransparentKeys []string
	// KeyValueKeys front matter 中只翻译值的键前缀
	KeyValueKeys []string
	// ArrayKeys front matter 中按元素翻译的数组键前缀
	ArrayKeys []string
	// TransparentPrefixes 正文中原样保留的行前缀，如 <audio、<img
	TransparentPrefixes []string
	// InsertWarning 是否插入机器翻译警告占位
	InsertWarning bool
}

// DefaultTokenizerOptions 返回默认扫描配置
func DefaultTokenizerOptions() TokenizerOptions {
	return TokenizerOptions{
		TransparentKeys: []string{
			"date:", "slug:", "toc", "image", "comments", "readingTime",
			"menu:", "    main:", "        weight:", "        params:", "            icon:",
			"links:", "    website:", "    image:",
			"layout:", "outputs:", "    - html", "    - json",
			"license:", "#", "style:", "    background:", "    color:",
		},
		KeyValueKeys: []string{
			"title:", "description:", "        name:", "  - title:", "    description:",
		},
		ArrayKeys:           []string{"tags:", "categories:", "keywords:"},
		TransparentPrefixes: []string{"<audio", "<img "},
		InsertWarning:       true,
	}
}

// ScanState 行扫描状态，逐行传递给 Classify
type ScanState struct {
	InFrontMatter bool
	InCodeBlock   bool
	InNoTranslate bool
	InLineMath    bool
	// WarningArmed 警告占位尚未插入
	WarningArmed bool
	// SeenContent 已经出现过非空行，之后的 --- 不再视为 front matter
	SeenContent bool
}

// NewScanState 返回文档开头的扫描状态
func NewScanState(opts TokenizerOptions) ScanState {
	return ScanState{WarningArmed: opts.InsertWarning}
}

// Tokenize 将文档行转换为节点序列
func Tokenize(lines []string, opts TokenizerOptions) []Node {
	state := NewScanState(opts)
	nodes := make([]Node, 0, len(lines)+1)
	for _, line := range lines {
		var emitted []Node
		emitted, state = Classify(state, line, opts)
		nodes = append(nodes, emitted...)
	}
	return nodes
}

// Classify 对单行分类，返回生成的节点和新的扫描状态。
// 一行通常生成一个节点；插入警告时生成两个；不翻译标记行不生成节点。
func Classify(state ScanState, line string, opts TokenizerOptions) ([]Node, ScanState) {
	trimmed := strings.TrimSpace(line)
	lead := strings.TrimLeft(line, " \t")

	switch {
	case state.InCodeBlock:
		if strings.HasPrefix(lead, codeFence) {
			state.InCodeBlock = false
		}
		return one(NewTransparentNode(line)), state

	case state.InLineMath:
		if strings.HasPrefix(lead, mathDelimiter) {
			state.InLineMath = false
		}
		return one(NewTransparentNode(line)), state

	case state.InNoTranslate:
		if strings.HasPrefix(line, noTranslateMarker) {
			state.InNoTranslate = false
			return nil, state
		}
		return one(NewTransparentNode(line)), state

	case state.InFrontMatter:
		if trimmed == frontMatterDelimiter {
			state.InFrontMatter = false
			state.SeenContent = true
			return state.warnAfter(NewTransparentNode(line))
		}
		return one(classifyFrontMatter(line, trimmed, opts)), state
	}

	// 正文
	if trimmed == "" {
		return one(NewTransparentNode(line)), state
	}
	seen := state.SeenContent
	state.SeenContent = true

	switch {
	case trimmed == frontMatterDelimiter && !seen:
		state.InFrontMatter = true
		return one(NewTransparentNode(line)), state

	case strings.HasPrefix(lead, codeFence):
		state.InCodeBlock = true
		return one(NewTransparentNode(line)), state

	case strings.HasPrefix(line, noTranslateMarker):
		state.InNoTranslate = true
		return nil, state

	case strings.HasPrefix(lead, mathDelimiter):
		// 单行 $$...$$ 不切换状态
		if !(len(trimmed) > 2*len(mathDelimiter) && strings.HasSuffix(trimmed, mathDelimiter)) {
			state.InLineMath = true
		}
		return one(NewTransparentNode(line)), state

	case trimmed == frontMatterDelimiter || hasAnyPrefix(line, opts.TransparentPrefixes):
		return one(NewTransparentNode(line)), state

	case hasImageOrLink(line):
		return one(NewImageOrLinkNode(line)), state

	case strings.HasPrefix(trimmed, "#"):
		title := NewTitleNode(line)
		if strings.HasPrefix(trimmed, "# ") {
			return state.warnAfter(title)
		}
		return one(title), state
	}

	return one(NewSolidNode(line)), state
}

// warnAfter 在节点之后插入警告占位（每个文档最多一次）
func (s ScanState) warnAfter(n Node) ([]Node, ScanState) {
	if !s.WarningArmed {
		return one(n), s
	}
	s.WarningArmed = false
	return []Node{n, NewWarningNode()}, s
}

func classifyFrontMatter(line, trimmed string, opts TokenizerOptions) Node {
	switch {
	case trimmed == "":
		return NewTransparentNode(line)
	case hasAnyPrefix(line, opts.KeyValueKeys):
		return NewKeyValueNode(line)
	case hasAnyPrefix(line, opts.TransparentKeys):
		return NewTransparentNode(line)
	case hasAnyPrefix(line, opts.ArrayKeys):
		return NewKeyValueArrayNode(line)
	default:
		return NewSolidNode(line)
	}
}

func hasImageOrLink(line string) bool {
	ok, err := imageOrLinkRegexp.MatchString(line)
	return err == nil && ok
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func one(n Node) []Node {
	return []Node{n}
}
