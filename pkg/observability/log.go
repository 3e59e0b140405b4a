package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log lines.
// Register the same value for each family:
//
//	h := observability.NewLogHooks(logger)
//	observability.SetPipelineHooks(h)
//	observability.SetDecodeHooks(h)
//	observability.SetCacheHooks(h)
//	observability.SetHTTPHooks(h)
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks creates log hooks writing to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{Logger: l}
}

func (h *LogHooks) OnBuildStart(_ context.Context, project string, sources int) {
	h.Logger.Debug("build started", "project", project, "sources", sources)
}

func (h *LogHooks) OnBuildComplete(_ context.Context, project string, parts int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("build failed", "project", project, "duration", d, "error", err)
		return
	}
	h.Logger.Debug("build finished", "project", project, "parts", parts, "duration", d)
}

func (h *LogHooks) OnComposeStart(_ context.Context, parts int) {
	h.Logger.Debug("compose started", "parts", parts)
}

func (h *LogHooks) OnComposeComplete(_ context.Context, parts int, d time.Duration) {
	h.Logger.Debug("compose finished", "parts", parts, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("render started", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("render failed", "formats", formats, "error", err)
		return
	}
	h.Logger.Debug("render finished", "formats", formats, "duration", d)
}

func (h *LogHooks) OnDecode(_ context.Context, name string, size int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("decode failed", "name", name, "bytes", size, "error", err)
		return
	}
	h.Logger.Debug("decoded", "name", name, "bytes", size, "duration", d)
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
	_ PipelineHooks = (*LogHooks)(nil)
	_ DecodeHooks   = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
