package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullToHalf(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"chinese punctuation", "你好，世界！", "你好,世界!"},
		{"brackets", "【注意】《标题》", "[注意]<标题>"},
		{"quotes", "“引用”", "\"引用\""},
		{"yen and enumeration comma", "￥100、200", "$100,200"},
		{"ascii untouched", "plain text 123", "plain text 123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FullToHalf(tt.in))
		})
	}
}

func TestHalfToFull(t *testing.T) {
	assert.Equal(t, "你好，世界！", HalfToFull("你好,世界!"))
	assert.Equal(t, "abc 123", HalfToFull("abc 123"))
	assert.Equal(t, "（a）", HalfToFull("(a)"))
}

func TestSymbolTablesRoundTrip(t *testing.T) {
	for _, r := range "!#%&()*+,-/:;<=>?@[\\]^_`{|}~" {
		s := string(r)
		assert.Equal(t, s, FullToHalf(HalfToFull(s)), "rune %q", r)
	}
}
