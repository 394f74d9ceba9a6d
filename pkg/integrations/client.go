package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/bonnie/pkg/cache"
	errs "github.com/matzehuels/bonnie/pkg/errors"
	"github.com/matzehuels/bonnie/pkg/observability"
)

// Client provides shared HTTP functionality for all registry API clients.
// It handles caching, retry logic, and common request headers.
type Client struct {
	http    *http.Client
	stream  *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	headers map[string]string

	retries int
	delay   time.Duration
	refresh bool
}

// NewClient creates a Client with the given cache and default headers.
// Cache keys are prefixed with prefix; ttl bounds how long responses stay
// cached. A nil cache disables caching. Pass nil for headers if no default
// headers are needed.
func NewClient(c cache.Cache, prefix string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    NewHTTPClient(DefaultTimeout),
		stream:  NewStreamClient(DefaultTimeout),
		cache:   c,
		keyer:   cache.NewScopedKeyer(nil, prefix),
		ttl:     ttl,
		headers: headers,
		retries: DefaultRetries,
		delay:   DefaultRetryDelay,
	}
}

// SetTimeout replaces the request timeout. Metadata requests must complete
// within d; [Client.Stream] only waits d for response headers and then reads
// the body for as long as it keeps arriving. Expiry surfaces as a retryable
// network error.
func (c *Client) SetTimeout(d time.Duration) {
	c.http = NewHTTPClient(d)
	c.stream = NewStreamClient(d)
}

// SetHTTPClient replaces the underlying HTTP client for both metadata and
// streamed requests.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
	c.stream = h
}

// SetRetry sets the number of attempts and the initial backoff delay.
func (c *Client) SetRetry(attempts int, delay time.Duration) {
	c.retries = max(attempts, 1)
	c.delay = delay
}

// SetRefresh makes every [Client.Cached] call bypass cached entries. Fresh
// responses are still written back.
func (c *Client) SetRefresh(refresh bool) { c.refresh = refresh }

// Cached retrieves a value from cache or executes fetch and caches the result.
// The fetch function should populate v; on success, v is stored in the cache
// as JSON. fetch is retried while it returns retryable errors.
func (c *Client) Cached(ctx context.Context, namespace, key string, v any, fetch func() error) error {
	ck := c.keyer.HTTPKey(namespace, key)
	if !c.refresh {
		if data, ok, _ := c.cache.Get(ctx, ck); ok && json.Unmarshal(data, v) == nil {
			observability.Cache().OnCacheHit(ctx, namespace)
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, namespace)
	}
	if err := c.Uncached(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, ck, data, c.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, namespace, len(data))
		}
	}
	return nil
}

// Uncached runs fetch with the client's retry policy and never reads or
// writes the cache. Use it for documents that move, such as dist-tags.
func (c *Client) Uncached(ctx context.Context, fetch func() error) error {
	return cache.Retry(ctx, c.retries, c.delay, fetch)
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// A body that cannot be decoded is reported as [errs.ErrParse].
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	body, err := c.doRequest(ctx, c.http, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrParse, rawURL, err)
	}
	return nil
}

// Stream performs an HTTP GET and copies the body to w, returning the number
// of bytes written. Establishing the response is retried; the copy is not,
// since w may already hold a partial body.
func (c *Client) Stream(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	var body io.ReadCloser
	err := cache.Retry(ctx, c.retries, c.delay, func() error {
		var err error
		body, err = c.doRequest(ctx, c.stream, rawURL)
		return err
	})
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("%w: read %s: %v", errs.ErrNetwork, rawURL, err)
	}
	return n, nil
}

func (c *Client) doRequest(ctx context.Context, hc *http.Client, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(req.URL)
	observability.HTTP().OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := hc.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", errs.ErrNetwork, err))
	}
	observability.HTTP().OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errs.ErrNotFound
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", errs.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", errs.ErrNetwork, code)
	}
}

func hostPath(u *url.URL) (string, string) {
	return u.Host, u.EscapedPath()
}
