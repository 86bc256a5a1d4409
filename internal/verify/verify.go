// Package verify 比较原文与译文的 Markdown 结构，发现翻译过程中被破坏的元素
package verify

import (
	"fmt"
	"sort"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Counts 文档结构统计
type Counts struct {
	Headings   int
	CodeBlocks int
	Links      int
	Images     int
	MathBlocks int
	InlineMath int
	MetaKeys   []string
}

// Issue 一处结构差异
type Issue struct {
	Element string
	Source  int
	Target  int
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: source %d, translated %d", i.Element, i.Source, i.Target)
}

// Verifier 结构校验器
type Verifier struct {
	md goldmark.Markdown
}

// New 创建校验器
func New() *Verifier {
	return &Verifier{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				mathjax.MathJax,
				meta.Meta,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Count 统计文档中的结构元素
func (v *Verifier) Count(source []byte) Counts {
	ctx := parser.NewContext()
	doc := v.md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	var c Counts
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading:
			c.Headings++
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			c.CodeBlocks++
		case *ast.Link, *ast.AutoLink:
			c.Links++
		case *ast.Image:
			c.Images++
		case *mathjax.MathBlock:
			c.MathBlocks++
		case *mathjax.InlineMath:
			c.InlineMath++
		}
		return ast.WalkContinue, nil
	})

	for k := range meta.Get(ctx) {
		c.MetaKeys = append(c.MetaKeys, k)
	}
	sort.Strings(c.MetaKeys)
	return c
}

// Compare 返回原文与译文之间的结构差异，无差异时返回空
func (v *Verifier) Compare(source, translated []byte) []Issue {
	a, b := v.Count(source), v.Count(translated)

	var issues []Issue
	check := func(name string, x, y int) {
		if x != y {
			issues = append(issues, Issue{Element: name, Source: x, Target: y})
		}
	}
	check("headings", a.Headings, b.Headings)
	check("code blocks", a.CodeBlocks, b.CodeBlocks)
	check("links", a.Links, b.Links)
	check("images", a.Images, b.Images)
	check("math blocks", a.MathBlocks, b.MathBlocks)
	check("inline math", a.InlineMath, b.InlineMath)
	check("front matter keys", len(a.MetaKeys), len(b.MetaKeys))
	return issues
}
