package rpc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fystack/tron-events/pkg/ratelimiter"
)

// APIKeyHeader is the authentication header TronGrid-style event servers expect.
const APIKeyHeader = "TRON-PRO-API-KEY"

const defaultTimeout = 30 * time.Second

type AuthType string

const (
	AuthTypeHeader AuthType = "header"
	AuthTypeQuery  AuthType = "query"
)

// AuthConfig holds request authentication, a single header or query pair.
type AuthConfig struct {
	Type  AuthType `json:"type"  yaml:"type"`
	Key   string   `json:"key"   yaml:"key"`
	Value string   `json:"value" yaml:"value"`
}

// APIKeyAuth builds the TRON-PRO-API-KEY header auth for key.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Type: AuthTypeHeader, Key: APIKeyHeader, Value: key}
}

// HTTPProvider performs GET exchanges against an event-server base URL.
//
// Request hands back the response body for any HTTP status: the event API
// reports failures inside the response envelope, so only transport-level
// failures surface as errors. Healthcheck is the one status-sensitive call.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
	auth       *AuthConfig
	headers    map[string]string
	limiter    *ratelimiter.RateLimiter
}

type Option func(*HTTPProvider)

func WithTimeout(d time.Duration) Option {
	return func(p *HTTPProvider) {
		if d > 0 {
			p.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *HTTPProvider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

func WithAuth(auth *AuthConfig) Option {
	return func(p *HTTPProvider) { p.auth = auth }
}

func WithHeaders(headers map[string]string) Option {
	return func(p *HTTPProvider) { p.headers = headers }
}

// WithRateLimit throttles all calls, healthchecks included, to rps requests
// per second. Zero rps disables throttling.
func WithRateLimit(rps, burst int) Option {
	return func(p *HTTPProvider) {
		if rps > 0 {
			p.limiter = ratelimiter.New(rps, burst)
		}
	}
}

func NewHTTPProvider(rawURL string, opts ...Option) (*HTTPProvider, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid provider url %q: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid provider url %q", rawURL)
	}

	p := &HTTPProvider{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimSuffix(u.String(), "/"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Request issues GET {base}/{path}?{query} and returns the raw response body.
func (p *HTTPProvider) Request(ctx context.Context, path string, query url.Values) ([]byte, error) {
	_, body, err := p.get(ctx, path, query)
	return body, err
}

// Healthcheck issues GET {base}/{path} and fails on any non-2xx status.
func (p *HTTPProvider) Healthcheck(ctx context.Context, path string) error {
	status, body, err := p.get(ctx, path, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("healthcheck HTTP %d from %s: %s", status, p.endpoint(path), string(body))
	}
	return nil
}

func (p *HTTPProvider) GetURL() string { return p.baseURL }

func (p *HTTPProvider) get(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	target := p.endpoint(path)

	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	if p.auth != nil && p.auth.Type == AuthTypeQuery {
		q.Set(p.auth.Key, p.auth.Value)
	}
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
	if p.auth != nil && p.auth.Type == AuthTypeHeader {
		req.Header.Set(p.auth.Key, p.auth.Value)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	slog.Debug("HTTP request completed",
		"url", target,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)
	return resp.StatusCode, body, nil
}

func (p *HTTPProvider) endpoint(path string) string {
	return p.baseURL + "/" + strings.TrimPrefix(path, "/")
}
