package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(nodes []Node) []Kind {
	out := make([]Kind, len(nodes))
	for i, n := range nodes {
		out[i] = n.Kind()
	}
	return out
}

func noWarning() TokenizerOptions {
	opts := DefaultTokenizerOptions()
	opts.InsertWarning = false
	return opts
}

func TestTokenizeFrontMatter(t *testing.T) {
	lines := SplitLines("---\ntitle: Hello\ndate: 2024-01-01\n---\n# Hi\n")
	nodes := Tokenize(lines, DefaultTokenizerOptions())

	require.Equal(t, []Kind{
		KindTransparent, KindKeyValue, KindTransparent, KindTransparent,
		KindTransparent, KindTitle,
	}, kinds(nodes))

	warn, ok := nodes[4].(*TransparentNode)
	require.True(t, ok)
	assert.True(t, warn.IsWarning())

	assert.Equal(t, "Hello", nodes[1].Value())
	assert.Equal(t, "date: 2024-01-01", nodes[2].Raw())
	assert.Equal(t, "Hi", nodes[5].Value())
}

func TestTokenizeCodeFence(t *testing.T) {
	lines := SplitLines("```python\nprint(1)\n# not a title\n```\nText\n")
	nodes := Tokenize(lines, noWarning())

	assert.Equal(t, []Kind{
		KindTransparent, KindTransparent, KindTransparent, KindTransparent, KindSolid,
	}, kinds(nodes))
}

func TestTokenizeIndentedFence(t *testing.T) {
	lines := SplitLines("- list\n  ```\n  code\n  ```\nafter\n")
	nodes := Tokenize(lines, noWarning())

	assert.Equal(t, []Kind{
		KindSolid, KindTransparent, KindTransparent, KindTransparent, KindSolid,
	}, kinds(nodes))
}

func TestTokenizeHorizontalRuleAfterContent(t *testing.T) {
	nodes := Tokenize(SplitLines("Intro\n---\nMore\n"), noWarning())

	assert.Equal(t, []Kind{KindSolid, KindTransparent, KindSolid}, kinds(nodes))
}

func TestTokenizeNoTranslateMarker(t *testing.T) {
	lines := SplitLines("__do_not_translate__\nsecret\n__do_not_translate__\nok\n")
	nodes := Tokenize(lines, noWarning())

	require.Len(t, nodes, 2)
	assert.Equal(t, KindTransparent, nodes[0].Kind())
	assert.Equal(t, "secret", nodes[0].Raw())
	assert.Equal(t, KindSolid, nodes[1].Kind())
}

func TestTokenizeMath(t *testing.T) {
	nodes := Tokenize(SplitLines("$$\nx^2 + y\n$$\nafter\n"), noWarning())
	assert.Equal(t, []Kind{KindTransparent, KindTransparent, KindTransparent, KindSolid}, kinds(nodes))

	nodes = Tokenize(SplitLines("$$x^2$$\nafter\n"), noWarning())
	assert.Equal(t, []Kind{KindTransparent, KindSolid}, kinds(nodes))
}

func TestTokenizeBody(t *testing.T) {
	lines := []string{
		"",
		"<img src=\"a.png\">",
		"<audio controls>",
		"[See more](https://example.com/path)",
		"## Section",
		"#",
		"Plain text.",
	}
	nodes := Tokenize(lines, noWarning())
	assert.Equal(t, []Kind{
		KindTransparent, KindTransparent, KindTransparent,
		KindImageOrLink, KindTitle, KindTransparent, KindSolid,
	}, kinds(nodes))
}

func TestTokenizeWarningOnce(t *testing.T) {
	nodes := Tokenize(SplitLines("# A\ntext\n# B\n"), DefaultTokenizerOptions())
	assert.Equal(t, []Kind{KindTitle, KindTransparent, KindSolid, KindTitle}, kinds(nodes))

	nodes = Tokenize(SplitLines("## Sub\n# A\n"), DefaultTokenizerOptions())
	assert.Equal(t, []Kind{KindTitle, KindTitle, KindTransparent}, kinds(nodes))

	nodes = Tokenize(SplitLines("# A\n"), noWarning())
	assert.Equal(t, []Kind{KindTitle}, kinds(nodes))
}

func TestTokenizeFrontMatterKinds(t *testing.T) {
	lines := SplitLines(`---
title: "Quoted Title"
description:
tags: [Go, "Rust"]
categories: []
toc: true
author: Someone

---
`)
	nodes := Tokenize(lines, noWarning())
	assert.Equal(t, []Kind{
		KindTransparent,
		KindKeyValue,
		KindTransparent,
		KindKeyValueArray,
		KindTransparent,
		KindTransparent,
		KindSolid,
		KindTransparent,
		KindTransparent,
	}, kinds(nodes))
}

func TestClassifyIsPure(t *testing.T) {
	opts := DefaultTokenizerOptions()
	state := NewScanState(opts)

	nodes, next := Classify(state, "---", opts)
	require.Len(t, nodes, 1)
	assert.True(t, next.InFrontMatter)
	assert.False(t, state.InFrontMatter)

	nodes, next = Classify(next, "---", opts)
	require.Len(t, nodes, 2)
	assert.False(t, next.InFrontMatter)
	assert.False(t, next.WarningArmed)
	assert.True(t, next.SeenContent)
}
