package libretranslate

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

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/languages":
			_, _ = w.Write([]byte(`[{"code":"en","name":"English"},{"code":"zh-Hant","name":"Chinese (Traditional)"}]`))
		case "/translate":
			var req TranslateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Q == "fail" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"Invalid request"}`))
				return
			}
			_, _ = w.Write([]byte(`{"translatedText":"` + req.Target + `:` + req.Q + `","detectedLanguage":{"confidence":90,"language":"en"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestTranslate(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL
	p := New(cfg)

	resp, err := p.Translate(context.Background(), &providers.ProviderRequest{
		Text:           "hi",
		SourceLanguage: "auto",
		TargetLanguage: "zh-TW",
	})
	require.NoError(t, err)
	assert.Equal(t, "zh:hi", resp.Text)
	assert.Equal(t, "en", resp.DetectedSource)

	// 获取语言列表后使用服务端代码
	require.NoError(t, p.HealthCheck(context.Background()))
	assert.Len(t, p.Languages(), 2)

	resp, err = p.Translate(context.Background(), &providers.ProviderRequest{
		Text:           "hi",
		TargetLanguage: "zh-Hant",
	})
	require.NoError(t, err)
	assert.Equal(t, "zh-Hant:hi", resp.Text)
}

func TestTranslateError(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL
	_, err := New(cfg).Translate(context.Background(), &providers.ProviderRequest{Text: "fail", TargetLanguage: "de"})

	var pe *providers.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, providers.ErrCodeBadRequest, pe.Code)
	assert.Contains(t, pe.Message, "Invalid request")
}
