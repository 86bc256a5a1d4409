package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `---
title: Sample Post
date: 2024-01-01
tags: [Go, Markdown]
---

# Getting Started

This is **important** text with ` + "`inline code`" + `.

` + "```go" + `
fmt.Println("hello")
` + "```" + `

- first item
- second item

| Name | Value |
|------|-------|
| a    | 1     |

[See more](https://example.com/path) and ![diagram](img/d.png)

$$
E = mc^2
$$
`

func untranslated(doc *Document) []string {
	out := make([]string, len(doc.Chunks))
	for i, c := range doc.Chunks {
		out[i] = c.Text()
	}
	return out
}

func parse(t *testing.T, text string, opts TokenizerOptions) *Document {
	t.Helper()
	po := DefaultParseOptions()
	po.Tokenizer = opts
	doc, err := Parse(text, po)
	require.NoError(t, err)
	return doc
}

func TestAssembleIdentity(t *testing.T) {
	doc := parse(t, sampleDoc, noWarning())

	out, err := Assemble(doc, untranslated(doc), "en", nil)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, out)
}

func TestAssembleConservation(t *testing.T) {
	doc := parse(t, sampleDoc, DefaultTokenizerOptions())

	fed := doc.LineCount - len(doc.EmptyLinePositions)
	assert.Equal(t, fed, doc.TransLineCount())

	translatable := 0
	for _, c := range doc.Chunks {
		translatable += strings.Count(c.Text(), "\n")
	}
	assert.Equal(t, fed, translatable)
}

func TestAssembleFrontMatterScenario(t *testing.T) {
	src := "---\ntitle: Hello\ndate: 2024-01-01\n---\n# Hi\n"
	doc := parse(t, src, DefaultTokenizerOptions())

	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, []string{"Hello", "Hi"}, doc.Chunks[0].Translatable())

	merged, err := doc.Chunks[0].Merge([]string{"你好", "嗨"})
	require.NoError(t, err)

	out, err := Assemble(doc, []string{merged}, "zh", map[string]string{"zh": "机器翻译"})
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: 你好\ndate: 2024-01-01\n---\n\n> 机器翻译\n\n# 嗨\n", out)
}

func TestAssembleWarningFallback(t *testing.T) {
	doc := parse(t, "# Hi\n", DefaultTokenizerOptions())

	out, err := Assemble(doc, untranslated(doc), "fr", map[string]string{"zh": "警告"})
	require.NoError(t, err)
	assert.Equal(t, "# Hi\n\n> Warning Not Found\n\n", out)
}

func TestAssembleLinkPreserved(t *testing.T) {
	doc := parse(t, "[See more](https://example.com/path)\n", noWarning())
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, "See more", doc.Chunks[0].SourceText())

	merged, err := doc.Chunks[0].Merge([]string{"查看更多"})
	require.NoError(t, err)
	out, err := Assemble(doc, []string{merged}, "zh", nil)
	require.NoError(t, err)
	assert.Equal(t, "[查看更多](https://example.com/path)\n", out)
}

func TestAssembleCodeNeverSent(t *testing.T) {
	doc := parse(t, "Intro\n```\nprint(1)\n```\n", noWarning())
	for _, c := range doc.Chunks {
		assert.NotContains(t, c.Text(), "print(1)")
	}
}

func TestAssembleMismatch(t *testing.T) {
	doc := parse(t, "one\ntwo\n", noWarning())

	_, err := Assemble(doc, []string{"one\n"}, "en", nil)
	assert.ErrorIs(t, err, ErrLineCountMismatch)

	_, err = Assemble(doc, []string{"one\ntwo\nthree\n"}, "en", nil)
	assert.ErrorIs(t, err, ErrLineCountMismatch)

	_, err = Assemble(doc, nil, "en", nil)
	assert.ErrorIs(t, err, ErrLineCountMismatch)
}

func TestAssembleNoTrailingNewline(t *testing.T) {
	doc := parse(t, "line one\nline two", noWarning())
	out, err := Assemble(doc, untranslated(doc), "en", nil)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", out)
}

func TestAssembleEmptyDocument(t *testing.T) {
	doc := parse(t, "", noWarning())
	assert.Empty(t, doc.Chunks)
	out, err := Assemble(doc, nil, "en", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInsertEmptyLines(t *testing.T) {
	got := InsertEmptyLines([]string{"a", "b"}, []int{0, 2, 5})
	assert.Equal(t, []string{"", "a", "", "b", ""}, got)
}

func TestParseCRLF(t *testing.T) {
	doc := parse(t, "# Title\r\nBody\r\n", noWarning())
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "Title", doc.Nodes[0].Value())
	assert.Equal(t, "Body", doc.Nodes[1].Value())
	assert.Equal(t, 10, doc.CharsCount)
}

func TestAssembleSpacedSkipsTransparentLines(t *testing.T) {
	src := "Intro`x`text\n\n```python\nprint(f\"hi {x}\")\nreturn \"a\"Value\n```\n$$\na`b`c\n$$\n"
	doc := parse(t, src, noWarning())
	spacer := NewSpacer(DefaultPatterns().Expand, []string{"ja"})

	out, err := AssembleSpaced(doc, untranslated(doc), "en", nil, spacer)
	require.NoError(t, err)
	assert.Equal(t, "Intro `x` text\n\n```python\nprint(f\"hi {x}\")\nreturn \"a\"Value\n```\n$$\na`b`c\n$$\n", out)

	out, err = AssembleSpaced(doc, untranslated(doc), "ja", nil, spacer)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	out, err = AssembleSpaced(doc, untranslated(doc), "en", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestAssembleSpacedCarriesCommaAcrossNodes(t *testing.T) {
	doc := parse(t, "# Hello,\nWorld`x`\n", noWarning())
	spacer := NewSpacer(DefaultPatterns().Expand, nil)

	out, err := AssembleSpaced(doc, untranslated(doc), "en", nil, spacer)
	require.NoError(t, err)
	assert.Equal(t, "# Hello,\nworld `x`\n", out)
}
