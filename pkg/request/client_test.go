package request

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i2cgo/pkg/tracker"
)

func TestGetWithHeaders_Success(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "i2cgo/"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer svr.Close()

	tr := tracker.New()
	client := New(tr, ClientConfig{})

	body, err := client.GetWithHeaders(context.Background(), svr.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	host := strings.TrimPrefix(svr.URL, "http://")
	assert.Equal(t, int64(1), tr.Snapshot()[host].APISuccess)
}

func TestGetWithHeaders_NoRetry(t *testing.T) {
	var attempts int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer svr.Close()

	tr := tracker.New()
	client := New(tr, ClientConfig{})

	_, err := client.GetWithHeaders(context.Background(), svr.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "slow down")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "a failed request must not be retried")

	host := strings.TrimPrefix(svr.URL, "http://")
	assert.Equal(t, int64(1), tr.Snapshot()[host].APIFailures)
}

func TestPostWithHeaders(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	defer svr.Close()

	client := New(tracker.New(), ClientConfig{})
	got, err := client.PostWithHeaders(context.Background(), svr.URL, []byte(`{"a":1}`), map[string]string{
		"Authorization": "Bearer k",
		"user-agent":    "custom-agent",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestConfiguredUserAgent(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer svr.Close()

	client := New(tracker.New(), ClientConfig{UserAgent: "my_app"})
	got, err := client.GetWithHeaders(context.Background(), svr.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "my_app", string(got))
}

func TestProviderLabelFromContext(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	defer svr.Close()

	tr := tracker.New()
	client := New(tr, ClientConfig{})

	ctx := context.WithValue(context.Background(), CtxProviderLabel, "openai")
	_, err := client.PostWithHeaders(ctx, svr.URL, []byte("{}"), map[string]string{"Content-Type": "application/json"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tr.Snapshot()["openai"].APISuccess)
}

func TestGetWithHeaders_ContextCanceled(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer svr.Close()

	client := New(tracker.New(), ClientConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetWithHeaders(ctx, svr.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
