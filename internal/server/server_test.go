package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTranslator struct {
	err     error
	gotText string
	gotLang string
}

func (s *stubTranslator) TranslateText(_ context.Context, text, lang string) (string, error) {
	s.gotText = text
	s.gotLang = lang
	if s.err != nil {
		return "", s.err
	}
	return strings.ToUpper(text), nil
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	s := New(&stubTranslator{}, Options{}, zap.NewNop())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	tr := &stubTranslator{}
	s := New(tr, Options{DefaultLang: "zh", UploadDir: dir}, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "guide.md", "# Hello\n", map[string]string{"lang": "ja"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# HELLO\n", rec.Body.String())
	assert.Equal(t, `attachment; filename="guide.ja.md"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ja", tr.gotLang)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "-guide.md"))
}

func TestUploadDefaultLang(t *testing.T) {
	tr := &stubTranslator{}
	s := New(tr, Options{DefaultLang: "zh"}, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "../../etc/notes.md", "hi", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zh", tr.gotLang)
	assert.Equal(t, `attachment; filename="notes.zh.md"`, rec.Header().Get("Content-Disposition"))
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		tr       *stubTranslator
		filename string
		content  string
		fields   map[string]string
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing file",
			opts:     Options{DefaultLang: "zh"},
			wantCode: http.StatusBadRequest,
			wantErr:  "file is required",
		},
		{
			name:     "no language",
			filename: "a.md",
			content:  "hi",
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid target language",
		},
		{
			name:     "bad language",
			opts:     Options{DefaultLang: "zh"},
			filename: "a.md",
			content:  "hi",
			fields:   map[string]string{"lang": "../zh"},
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid target language",
		},
		{
			name:     "too large",
			opts:     Options{DefaultLang: "zh", MaxUploadSize: 4},
			filename: "a.md",
			content:  "hello world",
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "exceeds max size",
		},
		{
			name:     "backend failure",
			opts:     Options{DefaultLang: "zh"},
			tr:       &stubTranslator{err: errors.New("quota exceeded")},
			filename: "a.md",
			content:  "hi",
			wantCode: http.StatusBadGateway,
			wantErr:  "quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tt.tr
			if tr == nil {
				tr = &stubTranslator{}
			}
			s := New(tr, tt.opts, nil)

			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, uploadRequest(t, tt.filename, tt.content, tt.fields))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.wantErr)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "notes.md", sanitizeFilename("../../notes.md"))
	assert.Equal(t, "document.md", sanitizeFilename(""))
	assert.Equal(t, "a_b.md", sanitizeFilename("a..b.md"))
}
