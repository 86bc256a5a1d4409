package retry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDelay(t *testing.T) {
	nr := NewNetworkRetrier(RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      350 * time.Millisecond,
		BackoffFactor: 2.0,
	})
	assert.Equal(t, 100*time.Millisecond, nr.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, nr.calculateDelay(2))
	assert.Equal(t, 350*time.Millisecond, nr.calculateDelay(3))
}

func TestClassifyError(t *testing.T) {
	nr := NewNetworkRetrier(DefaultRetryConfig())
	tests := []struct {
		name string
		err  error
		code int
		want ErrorType
	}{
		{"ok", nil, 200, ErrorTypeNone},
		{"refused", syscall.ECONNREFUSED, 0, ErrorTypeNetwork},
		{"eof", io.ErrUnexpectedEOF, 0, ErrorTypeNetwork},
		{"other", errors.New("boom"), 0, ErrorTypePermanent},
		{"429", nil, 429, ErrorTypeRetryableHTTP},
		{"502", nil, 502, ErrorTypeServerError},
		{"404", nil, 404, ErrorTypeClientError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.code != 0 {
				resp = &http.Response{StatusCode: tt.code}
			}
			assert.Equal(t, tt.want, nr.classifyError(tt.err, resp))
		})
	}
	assert.False(t, isNetworkError(context.Canceled))
}

func TestTransportRetriesAndReplaysBody(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(body))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := &http.Client{Transport: NewTransport(nil, RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond})}
	resp, err := client.Post(server.URL, "text/plain", strings.NewReader("payload"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTransportGivesUp(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewTransport(nil, RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond})}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTransportNoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewTransport(nil, RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond})}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
