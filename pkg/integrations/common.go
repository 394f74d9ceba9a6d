package integrations

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Defaults for registry requests.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
)

// NewHTTPClient creates an HTTP client with the given per-request timeout.
// A non-positive timeout selects [DefaultTimeout].
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NewStreamClient creates an HTTP client for large downloads. Only the wait
// for response headers is bounded by timeout; the body may take as long as
// it needs, subject to the request context. A non-positive timeout selects
// [DefaultTimeout].
func NewStreamClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: transport}
}

// EscapePackageName returns name as a single URL path segment.
// Scoped names keep their leading "@" and encode the slash, which is the form
// npm-compatible registries expect: "@types/node" becomes "@types%2Fnode".
func EscapePackageName(name string) string {
	if scope, rest, ok := strings.Cut(name, "/"); ok && strings.HasPrefix(scope, "@") {
		return "@" + url.PathEscape(scope[1:]) + "%2F" + url.PathEscape(rest)
	}
	return url.PathEscape(name)
}

// HostKey returns the host of a registry base URL, used to scope cache keys.
// Falls back to the raw string when it cannot be parsed.
func HostKey(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host + strings.TrimSuffix(u.Path, "/")
}
