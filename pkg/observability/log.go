package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// charmbracelet logger. The CLI installs it when --verbose is set.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger (nil means log.Default()).
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{Logger: logger}
}

// Register installs h as the install, cache and HTTP hooks.
func (h *LogHooks) Register() {
	SetInstallHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnResolveStart(_ context.Context, pkg string) {
	h.Logger.Debug("resolve start", "package", pkg)
}

func (h *LogHooks) OnResolveComplete(_ context.Context, pkg string, entries int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("resolve failed", "package", pkg, "duration", d, "error", err)
		return
	}
	h.Logger.Debug("resolve done", "package", pkg, "entries", entries, "duration", d)
}

func (h *LogHooks) OnDownloadStart(_ context.Context, count int) {
	h.Logger.Debug("download start", "count", count)
}

func (h *LogHooks) OnDownloadComplete(_ context.Context, ok, failed int, d time.Duration) {
	h.Logger.Debug("download done", "ok", ok, "failed", failed, "duration", d)
}

func (h *LogHooks) OnWriteBack(_ context.Context, path, pkg, version string, err error) {
	h.Logger.Debug("write back", "path", path, "package", pkg, "version", version, "error", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}

var (
	_ InstallHooks = (*LogHooks)(nil)
	_ CacheHooks   = (*LogHooks)(nil)
	_ HTTPHooks    = (*LogHooks)(nil)
)
