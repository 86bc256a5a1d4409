package markdown

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// DefaultChunkSize 默认每个文本块的字符数上限
const DefaultChunkSize = 600

// ErrLineCountMismatch 翻译结果的行数与待翻译片段数量不一致
var ErrLineCountMismatch = errors.New("translated line count mismatch")

// SpanKind 片段类型
type SpanKind int

const (
	// SpanTranslate 需要翻译的片段
	SpanTranslate SpanKind = iota
	// SpanSkip 原样保留的片段
	SpanSkip
)

// Span 文本块中的一个有序片段
type Span struct {
	Kind SpanKind
	Text string
}

// Chunk 一次翻译请求的文本块，片段顺序即文本顺序
type Chunk struct {
	Spans []Span
}

// SplitChunk 按跳过模式将文本切分为有序片段，空片段不占位置。
// 只含空白的片段同样原样保留。
func SplitChunk(text string, skip *regexp2.Regexp) (Chunk, error) {
	frags, err := splitKeep(skip, text)
	if err != nil {
		return Chunk{}, fmt.Errorf("split chunk: %w", err)
	}
	spans := make([]Span, 0, len(frags))
	for _, f := range frags {
		kind := SpanTranslate
		if f.Match || strings.TrimSpace(f.Text) == "" {
			kind = SpanSkip
		}
		spans = append(spans, Span{Kind: kind, Text: f.Text})
	}
	return Chunk{Spans: spans}, nil
}

// Text 按顺序拼接全部片段
func (c Chunk) Text() string {
	var sb strings.Builder
	for _, s := range c.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Translatable 返回需要翻译的片段文本
func (c Chunk) Translatable() []string {
	out := make([]string, 0, len(c.Spans))
	for _, s := range c.Spans {
		if s.Kind == SpanTranslate {
			out = append(out, s.Text)
		}
	}
	return out
}

// TranslatableCount 需要翻译的片段数量
func (c Chunk) TranslatableCount() int {
	n := 0
	for _, s := range c.Spans {
		if s.Kind == SpanTranslate {
			n++
		}
	}
	return n
}

// SourceText 发送给翻译服务的文本，每个待翻译片段一行
func (c Chunk) SourceText() string {
	return strings.Join(c.Translatable(), "\n")
}

// Chars 待翻译文本的字符数
func (c Chunk) Chars() int {
	return utf8.RuneCountInString(c.SourceText())
}

// Merge 用译文依次替换待翻译片段并拼接全部片段
func (c Chunk) Merge(translated []string) (string, error) {
	if want := c.TranslatableCount(); len(translated) != want {
		return "", fmt.Errorf("%w: got %d lines, want %d", ErrLineCountMismatch, len(translated), want)
	}
	var sb strings.Builder
	next := 0
	for _, s := range c.Spans {
		if s.Kind == SpanSkip {
			sb.WriteString(s.Text)
			continue
		}
		sb.WriteString(translated[next])
		next++
	}
	return sb.String(), nil
}

// BuildChunks 将待翻译行按字符数分块。
// 空行不进入文本块，其下标按升序记录在返回的位置列表中。
// 加入某行会使文本块超过 threshold 时，先封存当前文本块。
func BuildChunks(lines []string, threshold int, skip *regexp2.Regexp) ([]Chunk, []int, error) {
	if threshold <= 0 {
		threshold = DefaultChunkSize
	}
	var (
		chunks []Chunk
		empty  []int
		buf    []string
		length int
	)
	seal := func() error {
		if len(buf) == 0 {
			return nil
		}
		c, err := SplitChunk(strings.Join(buf, "\n")+"\n", skip)
		if err != nil {
			return err
		}
		chunks = append(chunks, c)
		buf = buf[:0]
		length = 0
		return nil
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			empty = append(empty, i)
			continue
		}
		n := utf8.RuneCountInString(line)
		if len(buf) > 0 && length+n > threshold {
			if err := seal(); err != nil {
				return nil, nil, err
			}
		}
		buf = append(buf, line)
		length += n
	}
	if err := seal(); err != nil {
		return nil, nil, err
	}
	return chunks, empty, nil
}
