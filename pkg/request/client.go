package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"i2cgo/pkg/tracker"
	"i2cgo/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("i2cgo/%s (photo story service)", version.Version)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

type ctxKey int

// CtxProviderLabel overrides the host-derived provider name used for tracking.
const CtxProviderLabel ctxKey = iota

// maxErrorBody caps how much of a failed response is kept in the error text.
const maxErrorBody = 512

// Client performs single-attempt HTTP requests and tracks their outcome per provider.
// There is no retry, no backoff and no caching: a remote failure surfaces to the caller immediately.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
	userAgent  string
}

// ClientConfig holds optional client settings.
type ClientConfig struct {
	// Timeout is the overall client timeout. Zero means none.
	Timeout time.Duration
	// UserAgent replaces the default User-Agent.
	UserAgent string
	// Transport replaces http.DefaultTransport, mostly for tests.
	Transport http.RoundTripper
}

// New creates a new Client.
func New(t *tracker.Tracker, cfg ClientConfig) *Client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		tracker:    t,
		userAgent:  ua,
	}
}

// Tracker returns the tracker the client reports to.
func (c *Client) Tracker() *tracker.Tracker {
	return c.tracker
}

// GetWithHeaders performs a GET request with custom headers.
func (c *Client) GetWithHeaders(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, headers)
}

// PostWithHeaders performs a POST request with custom headers.
func (c *Client) PostWithHeaders(ctx context.Context, u string, body []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, headers)
}

func (c *Client) do(req *http.Request, headers map[string]string) ([]byte, error) {
	provider := providerFor(req)

	uaSet := false
	for k, v := range headers {
		req.Header.Set(k, v)
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			uaSet = true
		}
	}
	if !uaSet {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	body, err := c.execute(req)
	if err != nil {
		c.tracker.TrackAPIFailure(provider)
		slog.Debug("Network request failed", "provider", provider, "path", req.URL.Path, "duration", time.Since(start), "error", err)
		return nil, err
	}
	c.tracker.TrackAPISuccess(provider)
	slog.Debug("Network request", "provider", provider, "path", req.URL.Path, "duration", time.Since(start), "bytes", len(body))
	return body, nil
}

func (c *Client) execute(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody] + "..."
		}
		return nil, fmt.Errorf("%w %d from %s: %s", ErrStatus, resp.StatusCode, req.URL.Host, snippet)
	}
	return body, nil
}

func providerFor(req *http.Request) string {
	if label, ok := req.Context().Value(CtxProviderLabel).(string); ok && label != "" {
		return label
	}
	return normalizeProvider(req.URL)
}

func normalizeProvider(u *url.URL) string {
	host := u.Hostname()
	switch {
	case strings.HasSuffix(host, "openstreetmap.org"):
		return "nominatim"
	case host == "api.openai.com":
		return "openai"
	case strings.HasSuffix(host, "googleapis.com"):
		return "gemini"
	case strings.HasSuffix(host, "groq.com"):
		return "groq"
	case strings.HasSuffix(host, "deepseek.com"):
		return "deepseek"
	case strings.HasSuffix(host, "nvidia.com"):
		return "nvidia"
	}
	return u.Host
}
