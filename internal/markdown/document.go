package markdown

import (
	"fmt"
	"os"
	"strings"
)

// ParseOptions 文档解析配置
type ParseOptions struct {
	Tokenizer TokenizerOptions
	// ChunkSize 每个文本块的字符数上限，<= 0 时使用 DefaultChunkSize
	ChunkSize int
	// Patterns 跳过/扩展模式，nil 时使用默认模式
	Patterns *Patterns
}

// DefaultParseOptions 返回默认解析配置
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Tokenizer: DefaultTokenizerOptions(),
		ChunkSize: DefaultChunkSize,
		Patterns:  DefaultPatterns(),
	}
}

// Document 一篇文档的翻译单元。
// 解析后只读，可被多个目标语言的翻译流程共享。
type Document struct {
	Nodes  []Node
	Chunks []Chunk
	// EmptyLinePositions 从待翻译缓冲中移除的空行下标（升序）
	EmptyLinePositions []int
	// CharsCount 需要翻译的字符总数
	CharsCount int
	// LineCount 待翻译缓冲的行数，包含空行
	LineCount int
	// TrailingNewline 源文本是否以换行结尾
	TrailingNewline bool
}

// Parse 解析 Markdown 文本
func Parse(text string, opts ParseOptions) (*Document, error) {
	if opts.Patterns == nil {
		opts.Patterns = DefaultPatterns()
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	nodes := Tokenize(SplitLines(text), opts.Tokenizer)

	var buf strings.Builder
	for _, n := range nodes {
		buf.WriteString(n.TransBuffer())
	}
	lines := SplitLines(buf.String())

	chunks, empty, err := BuildChunks(lines, opts.ChunkSize, opts.Patterns.Skip)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Nodes:              nodes,
		Chunks:             chunks,
		EmptyLinePositions: empty,
		LineCount:          len(lines),
		TrailingNewline:    strings.HasSuffix(text, "\n"),
	}
	for _, c := range chunks {
		doc.CharsCount += c.Chars()
	}
	return doc, nil
}

// ParseFile 读取并解析 Markdown 文件
func ParseFile(path string, opts ParseOptions) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(string(data), opts)
}

// TransLineCount 所有节点占用的待翻译行数之和
func (d *Document) TransLineCount() int {
	n := 0
	for _, node := range d.Nodes {
		n += node.TransLineCount()
	}
	return n
}

// SourceTexts 每个文本块发送给翻译服务的文本
func (d *Document) SourceTexts() []string {
	out := make([]string, len(d.Chunks))
	for i, c := range d.Chunks {
		out[i] = c.SourceText()
	}
	return out
}

// SplitLines 按换行切分文本，末尾的换行不产生空行
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
