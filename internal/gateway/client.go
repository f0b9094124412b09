package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 8 * time.Second
	csrfHeader     = "X-CSRFToken"
	maxBodyBytes   = 1 << 20
)

// Client issues storefront calls against the backend and decodes the shared
// response envelope. Every mutating request carries the CSRF token header
// and a request identifier.
type Client struct {
	baseURL string
	base    *url.URL
	http    *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout adjusts the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource replaces the CSRF token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient constructs a gateway client for the given backend base URL.
// A cookie jar is installed so the csrftoken cookie set by the server is
// echoed back on later mutating calls.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: cookie jar: %w", err)
	}
	c := &Client{
		baseURL: trimmed,
		base:    base,
		http: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = JarTokenSource{Jar: c.http.Jar, Base: base}
	}
	return c, nil
}

// BaseURL returns the trimmed backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// PostJSON sends a JSON-encoded mutating request and decodes the envelope.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (Result, error) {
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("gateway: marshal body: %w", err)
		}
		rd = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, rd, "application/json")
	if err != nil {
		return Result{}, err
	}
	return c.doEnvelope(req, path)
}

// PostForm sends a form-encoded mutating request and decodes the envelope.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (Result, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return Result{}, err
	}
	return c.doEnvelope(req, path)
}

// PostMultipart sends the fields as a multipart form and decodes the envelope.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string) (Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return Result{}, fmt.Errorf("gateway: multipart field %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("gateway: multipart: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return Result{}, err
	}
	return c.doEnvelope(req, path)
}

// GetJSON issues a GET with the given query and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("gateway: join %s: %w", path, err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observe(path, "transport_error", started)
		return fmt.Errorf("gateway: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		observe(path, "http_error", started)
		return fmt.Errorf("gateway: %s status %d: %s", path, resp.StatusCode, drainError(resp.Body))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		observe(path, "decode_error", started)
		return fmt.Errorf("gateway: decode %s: %w", path, err)
	}
	observe(path, "ok", started)
	c.log.Debug("gateway get",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)))
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("gateway: join %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set(csrfHeader, token)
	}
	return req, nil
}

func (c *Client) doEnvelope(req *http.Request, path string) (Result, error) {
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observe(path, "transport_error", started)
		c.log.Warn("gateway request failed", zap.String("path", path), zap.Error(err))
		return Result{}, fmt.Errorf("gateway: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		observe(path, "transport_error", started)
		return Result{}, fmt.Errorf("gateway: read %s: %w", path, err)
	}

	c.log.Debug("gateway post",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)))

	if resp.StatusCode >= 500 {
		observe(path, "http_error", started)
		return Result{}, fmt.Errorf("gateway: %s status %d: %s", path, resp.StatusCode, trimmed(body))
	}

	res, envErr := DecodeEnvelope(bytes.NewReader(body))
	if envErr == nil {
		outcome := "ok"
		if !res.OK {
			outcome = "rejected"
		}
		observe(path, outcome, started)
		return res, nil
	}

	// The backend rejects some requests with a bare {error} body and a 4xx
	// status rather than the envelope. Surface those as rejected results.
	if resp.StatusCode >= 400 {
		var reject struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &reject) == nil && strings.TrimSpace(reject.Error) != "" {
			observe(path, "rejected", started)
			return Result{OK: false, Message: strings.TrimSpace(reject.Error)}, nil
		}
		observe(path, "http_error", started)
		return Result{}, fmt.Errorf("gateway: %s status %d: %s", path, resp.StatusCode, trimmed(body))
	}

	observe(path, "decode_error", started)
	return Result{}, envErr
}

func trimmed(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max]
	}
	return s
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
