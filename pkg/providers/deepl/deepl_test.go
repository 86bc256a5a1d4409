package deepl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, "DeepL-Auth-Key key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Hello", r.Form.Get("text"))
		assert.Empty(t, r.Form.Get("source_lang"))
		assert.Equal(t, "ZH-HANS", r.Form.Get("target_lang"))
		assert.Equal(t, "nonewlines", r.Form.Get("split_sentences"))
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"EN","text":"你好"}]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIKey = "key"
	cfg.APIEndpoint = server.URL + "/"

	resp, err := New(cfg).Translate(context.Background(), &providers.ProviderRequest{
		Text:           "Hello",
		SourceLanguage: "auto",
		TargetLanguage: "zh",
	})
	require.NoError(t, err)
	assert.Equal(t, "你好", resp.Text)
	assert.Equal(t, "EN", resp.DetectedSource)
}

func TestQuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(456)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL
	_, err := New(cfg).Translate(context.Background(), &providers.ProviderRequest{Text: "x", TargetLanguage: "de"})

	var pe *providers.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, providers.ErrCodeRateLimit, pe.Code)
	assert.Equal(t, 456, pe.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/usage" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"character_count":1,"character_limit":500000}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL
	assert.NoError(t, New(cfg).HealthCheck(context.Background()))
}

func TestFreeKeySelectsFreeEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIEndpoint = ""
	cfg.APIKey = "abc:fx"
	p := New(cfg)
	assert.Equal(t, FreeEndpoint, p.config.APIEndpoint)
}

func TestNormalizeLanguageCode(t *testing.T) {
	tests := []struct {
		in       string
		isSource bool
		want     string
	}{
		{"auto", true, ""},
		{"en", true, "EN"},
		{"en", false, "EN-US"},
		{"en-GB", false, "EN-GB"},
		{"pt", false, "PT-BR"},
		{"zh-TW", false, "ZH-HANT"},
		{"ja", false, "JA"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeLanguageCode(tt.in, tt.isSource))
		})
	}
}
