package markdown

import (
	"strings"
	"unicode"
)

// WarningPlaceholder 机器翻译警告的占位内容
const WarningPlaceholder = "___HOLD_To_FILL_WARNING___"

// Kind 节点类型
type Kind int

const (
	KindTransparent Kind = iota
	KindSolid
	KindTitle
	KindImageOrLink
	KindKeyValue
	KindKeyValueArray
)

func (k Kind) String() string {
	switch k {
	case KindTransparent:
		return "transparent"
	case KindSolid:
		return "solid"
	case KindTitle:
		return "title"
	case KindImageOrLink:
		return "image_or_link"
	case KindKeyValue:
		return "key_value"
	case KindKeyValueArray:
		return "key_value_array"
	default:
		return "unknown"
	}
}

// Node 文档中的一个节点，通常对应源文件的一行。
// 节点本身不可变，翻译结果通过 Compose 的参数传入。
type Node interface {
	// Kind 返回节点类型
	Kind() Kind
	// Raw 返回原始行
	Raw() string
	// Value 返回节点的原始值，多行值以换行连接
	Value() string
	// TransBuffer 返回待翻译文本，每行以换行结尾；无需翻译时返回空串
	TransBuffer() string
	// TransLineCount 返回节点在待翻译缓冲中占用的行数
	TransLineCount() int
	// Compose 使用给定值重新组装节点的输出
	Compose(value string) string
}

// TransparentNode 原样输出的节点
type TransparentNode struct {
	raw     string
	warning bool
}

// NewTransparentNode 创建透明节点
func NewTransparentNode(line string) *TransparentNode {
	return &TransparentNode{raw: line}
}

// NewWarningNode 创建机器翻译警告占位节点
func NewWarningNode() *TransparentNode {
	return &TransparentNode{raw: WarningPlaceholder, warning: true}
}

func (n *TransparentNode) Kind() Kind              { return KindTransparent }
func (n *TransparentNode) Raw() string             { return n.raw }
func (n *TransparentNode) Value() string           { return n.raw }
func (n *TransparentNode) TransBuffer() string     { return "" }
func (n *TransparentNode) TransLineCount() int     { return 0 }
func (n *TransparentNode) Compose(v string) string { return v + "\n" }

// IsWarning 是否为警告占位节点
func (n *TransparentNode) IsWarning() bool { return n.warning }

// lineNode 单行可翻译节点：prefix + text + suffix
type lineNode struct {
	raw    string
	prefix string
	text   string
	suffix string
}

func (n *lineNode) Raw() string         { return n.raw }
func (n *lineNode) Value() string       { return n.text }
func (n *lineNode) TransBuffer() string { return n.text + "\n" }
func (n *lineNode) TransLineCount() int { return 1 }

func (n *lineNode) Compose(v string) string {
	return n.prefix + v + n.suffix + "\n"
}

// SolidNode 普通文本行，缩进保留，其余内容整体翻译
type SolidNode struct{ lineNode }

func (n *SolidNode) Kind() Kind { return KindSolid }

// TitleNode 标题行，井号前缀保留
type TitleNode struct{ lineNode }

func (n *TitleNode) Kind() Kind { return KindTitle }

// KeyValueNode front matter 中的 key: value 行，只翻译值
type KeyValueNode struct{ lineNode }

func (n *KeyValueNode) Kind() Kind { return KindKeyValue }

// NewSolidNode 创建普通文本节点，空白行返回透明节点
func NewSolidNode(line string) Node {
	lead, core, trail := splitSpace(line)
	if core == "" {
		return NewTransparentNode(line)
	}
	return &SolidNode{lineNode{raw: line, prefix: lead, text: core, suffix: trail}}
}

// NewTitleNode 创建标题节点，标题文字为空时返回透明节点
func NewTitleNode(line string) Node {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	for i < len(line) && line[i] == '#' {
		i++
	}
	_, core, trail := splitSpace(line[i:])
	if core == "" {
		return NewTransparentNode(line)
	}
	prefix := line[:len(line)-len(core)-len(trail)]
	return &TitleNode{lineNode{raw: line, prefix: prefix, text: core, suffix: trail}}
}

// NewKeyValueNode 创建 key: value 节点，引号保留在值的两侧
func NewKeyValueNode(line string) Node {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return NewSolidNode(line)
	}
	lead, core, trail := splitSpace(line[idx+1:])
	open, text, closing := unquote(core)
	if strings.TrimSpace(text) == "" {
		return NewTransparentNode(line)
	}
	return &KeyValueNode{lineNode{
		raw:    line,
		prefix: line[:idx+1] + lead + open,
		text:   text,
		suffix: closing + trail,
	}}
}

// arrayItem 数组中的一个元素
type arrayItem struct {
	prefix string
	text   string
	suffix string
}

// KeyValueArrayNode front matter 中的数组行，例如 tags: [a, b]，每个元素单独翻译
type KeyValueArrayNode struct {
	raw    string
	prefix string
	items  []arrayItem
	suffix string
	lines  int
}

// NewKeyValueArrayNode 创建数组节点，没有可翻译元素时返回透明节点
func NewKeyValueArrayNode(line string) Node {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return NewSolidNode(line)
	}
	lead, body, trail := splitSpace(line[idx+1:])
	prefix := line[:idx+1] + lead
	suffix := trail
	if strings.HasPrefix(body, "[") && strings.HasSuffix(body, "]") {
		prefix += "["
		suffix = "]" + suffix
		body = body[1 : len(body)-1]
	}
	n := &KeyValueArrayNode{raw: line, prefix: prefix, suffix: suffix}
	if strings.TrimSpace(body) == "" {
		return NewTransparentNode(line)
	}
	for _, elem := range strings.Split(body, ",") {
		l, core, t := splitSpace(elem)
		open, text, closing := unquote(core)
		item := arrayItem{prefix: l + open, text: text, suffix: closing + t}
		if strings.TrimSpace(text) != "" {
			n.lines++
		} else {
			item.prefix, item.text, item.suffix = elem, "", ""
		}
		n.items = append(n.items, item)
	}
	if n.lines == 0 {
		return NewTransparentNode(line)
	}
	return n
}

func (n *KeyValueArrayNode) Kind() Kind          { return KindKeyValueArray }
func (n *KeyValueArrayNode) Raw() string         { return n.raw }
func (n *KeyValueArrayNode) TransLineCount() int { return n.lines }

func (n *KeyValueArrayNode) Value() string {
	values := make([]string, 0, n.lines)
	for _, it := range n.items {
		if it.text != "" {
			values = append(values, it.text)
		}
	}
	return strings.Join(values, "\n")
}

func (n *KeyValueArrayNode) TransBuffer() string {
	return n.Value() + "\n"
}

func (n *KeyValueArrayNode) Compose(v string) string {
	values := strings.Split(v, "\n")
	var sb strings.Builder
	sb.WriteString(n.prefix)
	next := 0
	for i, it := range n.items {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(it.prefix)
		if it.text != "" {
			if next < len(values) {
				sb.WriteString(values[next])
			}
			next++
		}
		sb.WriteString(it.suffix)
	}
	sb.WriteString(n.suffix)
	sb.WriteString("\n")
	return sb.String()
}

// piece 图片/链接行中的一个片段
type piece struct {
	text      string
	translate bool
}

// ImageOrLinkNode 含有图片或链接的行。链接描述和链接之间的文字可翻译，
// 链接地址和语法原样保留。
type ImageOrLinkNode struct {
	raw    string
	pieces []piece
	lines  int
}

// NewImageOrLinkNode 创建图片/链接节点，没有可翻译内容时返回透明节点
func NewImageOrLinkNode(line string) Node {
	n := &ImageOrLinkNode{raw: line}
	runes := []rune(line)
	last := 0
	m, _ := imageOrLinkRegexp.FindRunesMatch(runes)
	for m != nil {
		n.addText(string(runes[last:m.Index]))
		n.addLink(m.String(), m.GroupByNumber(1).String(), m.GroupByNumber(4).String(), m.GroupByNumber(5).String())
		last = m.Index + m.Length
		m, _ = imageOrLinkRegexp.FindNextMatch(m)
	}
	n.addText(string(runes[last:]))
	if n.lines == 0 {
		return NewTransparentNode(line)
	}
	return n
}

func (n *ImageOrLinkNode) add(text string, translate bool) {
	if text == "" {
		return
	}
	if translate {
		n.lines++
	}
	n.pieces = append(n.pieces, piece{text: text, translate: translate})
}

func (n *ImageOrLinkNode) addText(s string) {
	lead, core, trail := splitSpace(s)
	n.add(lead, false)
	n.add(core, true)
	n.add(trail, false)
}

// addLink 拆分链接：[desc](url)、![alt](src) 或 [![alt](src)](url)
func (n *ImageOrLinkNode) addLink(whole, nestedAlt, bang, desc string) {
	var open, text string
	if strings.HasPrefix(whole, "[![") {
		open, text = "[![", nestedAlt
	} else {
		open, text = bang+"[", desc
	}
	if strings.TrimSpace(text) == "" {
		n.add(whole, false)
		return
	}
	n.add(open, false)
	n.add(text, true)
	n.add(whole[len(open)+len(text):], false)
}

func (n *ImageOrLinkNode) Kind() Kind          { return KindImageOrLink }
func (n *ImageOrLinkNode) Raw() string         { return n.raw }
func (n *ImageOrLinkNode) TransLineCount() int { return n.lines }

func (n *ImageOrLinkNode) Value() string {
	values := make([]string, 0, n.lines)
	for _, p := range n.pieces {
		if p.translate {
			values = append(values, p.text)
		}
	}
	return strings.Join(values, "\n")
}

func (n *ImageOrLinkNode) TransBuffer() string {
	return n.Value() + "\n"
}

func (n *ImageOrLinkNode) Compose(v string) string {
	values := strings.Split(v, "\n")
	var sb strings.Builder
	next := 0
	for _, p := range n.pieces {
		if !p.translate {
			sb.WriteString(p.text)
			continue
		}
		if next < len(values) {
			sb.WriteString(values[next])
		}
		next++
	}
	sb.WriteString("\n")
	return sb.String()
}

// splitSpace 拆分首尾空白
func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

// unquote 拆出成对的引号
func unquote(s string) (open, text, closing string) {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[:1], s[1 : len(s)-1], s[len(s)-1:]
		}
	}
	return "", s, ""
}
