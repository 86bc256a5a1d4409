package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpacerNormalize(t *testing.T) {
	spacer := NewSpacer(DefaultPatterns().Expand, []string{"zh-TW", "ja"})

	tests := []struct {
		name string
		lang string
		in   string
		want string
	}{
		{"adds spaces around code", "en", "Run`ls`now", "Run `ls` now"},
		{"link lowercases following word", "en", "See[link](u)Now", "See [link](u) now"},
		{"no space next to punctuation", "en", "你好，`code`。", "你好，`code`。"},
		{"existing spaces kept", "en", "`a` `b`", "`a` `b`"},
		{"adjacent specials separated", "en", "`a``b`", "`a` `b`"},
		{"line start untouched", "en", "**Bold** text", "**Bold** text"},
		{"comma continuation", "en", "Hello,\nWorld is big", "Hello,\nworld is big"},
		{"acronym kept", "en", "Hello,\nNASA rocks", "Hello,\nNASA rocks"},
		{"stop punctuation keeps case", "en", "Done.\nNext step", "Done.\nNext step"},
		{"blank lines and trailing newline", "en", "a`b`c\n\nd\n", "a `b` c\n\nd\n"},
		{"compact language skipped", "ja", "Run`ls`now", "Run`ls`now"},
		{"compact language case insensitive", "zh-tw", "Run`ls`now", "Run`ls`now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spacer.Normalize(tt.in, tt.lang))
		})
	}
}

func TestLowerFirst(t *testing.T) {
	assert.Equal(t, "hello World", lowerFirst("Hello World"))
	assert.Equal(t, "API docs", lowerFirst("API docs"))
	assert.Equal(t, "A", lowerFirst("A"))
	assert.Equal(t, "", lowerFirst(""))
	assert.Equal(t, "éte", lowerFirst("Éte"))
}

func TestIsUpper(t *testing.T) {
	assert.True(t, isUpper("NASA"))
	assert.True(t, isUpper("A1"))
	assert.False(t, isUpper("123"))
	assert.False(t, isUpper("Nasa"))
}
