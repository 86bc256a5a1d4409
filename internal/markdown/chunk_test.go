package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunkRoundTrip(t *testing.T) {
	skip := DefaultPatterns().Skip
	inputs := []string{
		"Hello **world**\n",
		"Use `go test ./...` to run \"all\" tests\n",
		"| Column 1 | Column 2 |\n|----------|----------|\n",
		"- item one\n- item two\n",
		"## Heading\n.\nText after a lone dot\n",
		"中文内容，包含`代码`和“引号”。\n",
	}
	for _, in := range inputs {
		c, err := SplitChunk(in, skip)
		require.NoError(t, err)
		assert.Equal(t, in, c.Text())

		merged, err := c.Merge(c.Translatable())
		require.NoError(t, err)
		assert.Equal(t, in, merged)
	}
}

func TestSplitChunkSpans(t *testing.T) {
	c, err := SplitChunk("Hello **world**\n", DefaultPatterns().Skip)
	require.NoError(t, err)

	assert.Equal(t, []Span{
		{Kind: SpanTranslate, Text: "Hello "},
		{Kind: SpanSkip, Text: "**"},
		{Kind: SpanTranslate, Text: "world"},
		{Kind: SpanSkip, Text: "**"},
		{Kind: SpanSkip, Text: "\n"},
	}, c.Spans)
	assert.Equal(t, 2, c.TranslatableCount())
	assert.Equal(t, "Hello \nworld", c.SourceText())
	assert.Equal(t, 12, c.Chars())
}

func TestSplitChunkNoMatches(t *testing.T) {
	text := "plain prose without any markup at all"
	c, err := SplitChunk(text, DefaultPatterns().Skip)
	require.NoError(t, err)

	require.Len(t, c.Spans, 1)
	assert.Equal(t, SpanTranslate, c.Spans[0].Kind)
	assert.Equal(t, text, c.Spans[0].Text)
}

func TestSplitChunkWhitespaceSpansSkipped(t *testing.T) {
	c, err := SplitChunk("`a` `b`\n", DefaultPatterns().Skip)
	require.NoError(t, err)
	assert.Equal(t, 0, c.TranslatableCount())
	assert.Equal(t, "`a` `b`\n", c.Text())
}

func TestChunkMergeMismatch(t *testing.T) {
	c, err := SplitChunk("Hello **world**\n", DefaultPatterns().Skip)
	require.NoError(t, err)

	_, err = c.Merge([]string{"only one"})
	assert.ErrorIs(t, err, ErrLineCountMismatch)

	merged, err := c.Merge([]string{"你好", "世界"})
	require.NoError(t, err)
	assert.Equal(t, "你好**世界**\n", merged)
}

func TestBuildChunksThreshold(t *testing.T) {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = strings.Repeat("a", 100)
	}

	chunks, empty, err := BuildChunks(lines, 600, DefaultPatterns().Skip)
	require.NoError(t, err)
	assert.Empty(t, empty)
	require.Len(t, chunks, 2)

	total := 0
	for _, c := range chunks {
		n := 0
		for _, s := range c.Translatable() {
			n += len(s)
		}
		assert.LessOrEqual(t, n, 600)
		total += n
	}
	assert.Equal(t, 1200, total)
}

func TestBuildChunksLongLine(t *testing.T) {
	lines := []string{strings.Repeat("b", 700), "short"}
	chunks, _, err := BuildChunks(lines, 600, DefaultPatterns().Skip)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("b", 700)+"\n", chunks[0].Text())
	assert.Equal(t, "short\n", chunks[1].Text())
}

func TestBuildChunksDefaultThreshold(t *testing.T) {
	lines := []string{strings.Repeat("c", 400), strings.Repeat("c", 400)}
	chunks, _, err := BuildChunks(lines, 0, DefaultPatterns().Skip)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestBuildChunksEmptyLines(t *testing.T) {
	lines := []string{"a", "", "b", "", " ", "c"}
	chunks, empty, err := BuildChunks(lines, 600, DefaultPatterns().Skip)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, empty)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a\nb\nc\n", chunks[0].Text())
}

func TestBlankLineRestoration(t *testing.T) {
	lines := []string{"", "first", "", "second", "  ", "third", ""}
	chunks, empty, err := BuildChunks(lines, 5, DefaultPatterns().Skip)
	require.NoError(t, err)

	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.Text())
	}
	restored := InsertEmptyLines(SplitLines(strings.Join(texts, "")), empty)
	require.Len(t, restored, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			assert.Empty(t, restored[i])
		} else {
			assert.Equal(t, line, restored[i])
		}
	}
}
