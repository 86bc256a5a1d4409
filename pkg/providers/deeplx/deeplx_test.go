package deeplx

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

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var req TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello\nWorld", req.Text)
		assert.Equal(t, "", req.SourceLang)
		assert.Equal(t, "ZH", req.TargetLang)

		_ = json.NewEncoder(w).Encode(TranslateResponse{Code: 200, Data: "你好\n世界", SourceLang: "EN"})
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL
	cfg.AccessToken = "token"
	p := New(cfg)

	resp, err := p.Translate(context.Background(), &providers.ProviderRequest{
		Text:           "Hello\nWorld",
		SourceLanguage: "auto",
		TargetLanguage: "zh-TW",
	})
	require.NoError(t, err)
	assert.Equal(t, "你好\n世界", resp.Text)
	assert.Equal(t, "EN", resp.DetectedSource)
	assert.Equal(t, "deeplx", p.GetName())
}

func TestTranslateBusinessError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TranslateResponse{Code: 429, Message: "too many requests"})
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL
	_, err := New(cfg).Translate(context.Background(), &providers.ProviderRequest{Text: "x", TargetLanguage: "de"})
	require.Error(t, err)

	var pe *providers.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, providers.ErrCodeRateLimit, pe.Code)
	assert.True(t, pe.IsRetryable())
}

func TestTranslateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL
	_, err := New(cfg).Translate(context.Background(), &providers.ProviderRequest{Text: "x", TargetLanguage: "de"})
	require.Error(t, err)
	assert.False(t, providers.IsRetryable(err))
}
