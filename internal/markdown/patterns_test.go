package markdown

import (
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePatterns(t *testing.T) {
	p, err := CompilePatterns([]string{`\|`, `(?<=a)b`}, []string{"`[^`]+?`"})
	require.NoError(t, err)
	require.NotNil(t, p.Skip)
	require.NotNil(t, p.Expand)

	_, err = CompilePatterns([]string{`(`}, DefaultExpandPatterns)
	assert.Error(t, err)

	_, err = CompilePatterns(DefaultSkipPatterns, nil)
	assert.Error(t, err)
}

func TestSplitAlternating(t *testing.T) {
	re := regexp2.MustCompile(`\d+`, regexp2.None)

	parts, err := splitAlternating(re, "a1b22")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", "b", "22", ""}, parts)

	parts, err = splitAlternating(re, "中文")
	require.NoError(t, err)
	assert.Equal(t, []string{"中文"}, parts)
}

func TestSkipPatternMultiline(t *testing.T) {
	frags, err := splitKeep(DefaultPatterns().Skip, "text\n- item\n")
	require.NoError(t, err)
	assert.Equal(t, []fragment{
		{Text: "text", Match: false},
		{Text: "\n", Match: true},
		{Text: "-", Match: true},
		{Text: " item", Match: false},
		{Text: "\n", Match: true},
	}, frags)
}

func TestSkipPatternTableSeparator(t *testing.T) {
	frags, err := splitKeep(DefaultPatterns().Skip, "|:---|---:|-----|\n")
	require.NoError(t, err)
	for _, f := range frags {
		assert.True(t, f.Match, "fragment %q", f.Text)
	}

	frags, err = splitKeep(DefaultPatterns().Skip, "a - b\n")
	require.NoError(t, err)
	assert.Equal(t, fragment{Text: "a - b", Match: false}, frags[0])
}
