package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserPrompt(t *testing.T) {
	prompt := BuildUserPrompt(&ProviderRequest{
		Text:           "a\nb",
		SourceLanguage: "auto",
		TargetLanguage: "zh_TW",
	})
	assert.Contains(t, prompt, "2 line(s)")
	assert.Contains(t, prompt, "from the detected language to zh-TW")
	assert.Contains(t, prompt, "\n\na\nb")
}

func TestCleanLLMOutput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"你好\n", "你好"},
		{"```\n你好\n世界\n```", "你好\n世界"},
		{"```text\n你好\n```\n", "你好"},
		{"`code` 保留", "`code` 保留"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanLLMOutput(tt.in))
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(assert.AnError))
	assert.True(t, IsRetryable(NewStatusError(503, "down")))
	assert.True(t, IsRetryable(NewStatusError(429, "slow down")))
	assert.False(t, IsRetryable(NewStatusError(401, "no")))
	assert.False(t, IsRetryable(NewError(ErrCodeBadRequest, "bad")))
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "zh-TW", NormalizeTag("zh_tw"))
	assert.Equal(t, "auto", NormalizeTag(""))
	assert.Equal(t, "zh", BaseLanguage("zh-TW"))
	assert.True(t, IsTraditionalChinese("zh-TW"))
	assert.True(t, IsTraditionalChinese("zh-Hant"))
	assert.False(t, IsTraditionalChinese("zh-CN"))
	assert.False(t, IsTraditionalChinese("ja"))
}
