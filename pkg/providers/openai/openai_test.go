package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

const completionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "你好\n世界\n"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
}`

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		messages, ok := body["messages"].([]interface{})
		require.True(t, ok)
		assert.Len(t, messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIKey = "sk-test"
	cfg.APIEndpoint = server.URL + "/v1"
	p := New(cfg)

	resp, err := p.Translate(context.Background(), &providers.ProviderRequest{
		Text:           "Hello\nWorld",
		SourceLanguage: "en",
		TargetLanguage: "zh",
	})
	require.NoError(t, err)
	assert.Equal(t, "你好\n世界", resp.Text)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 4, resp.TokensOut)
	assert.True(t, p.GetCapabilities().IsLLM)
}

func TestTranslateAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIKey = "bad"
	cfg.APIEndpoint = server.URL

	_, err := New(cfg).Translate(context.Background(), &providers.ProviderRequest{Text: "x", TargetLanguage: "de"})
	var pe *providers.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, providers.ErrCodeAuth, pe.Code)
	assert.False(t, pe.IsRetryable())
}

func TestGetModel(t *testing.T) {
	assert.Equal(t, "gpt-4o", string(getModel("gpt-4o")))
	assert.Equal(t, "qwen2.5", string(getModel("qwen2.5")))
}
