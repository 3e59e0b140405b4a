// Package observability lets an application watch kitbash at work.
//
// Libraries report events to package-level hook sets; the application picks
// the receivers once at startup. Every set starts as a no-op, so code that
// never registers anything pays a virtual call per event and nothing more.
//
// Four event families exist:
//
//   - [PipelineHooks]: manifest builds, compositing and artifact encoding
//   - [DecodeHooks]: one event per decoded image, from the importer and from
//     project builds
//   - [CacheHooks]: artifact and source cache lookups and writes
//   - [HTTPHooks]: requests for remote part sources
//
// [LogHooks] implements all four by logging at debug level; `kitbash -v`
// installs it.
//
//	h := observability.NewLogHooks(logger)
//	observability.SetPipelineHooks(h)
//	observability.SetDecodeHooks(h)
//
//	observability.Pipeline().OnComposeStart(ctx, parts)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from scene building and rendering.
type PipelineHooks interface {
	// OnBuildStart fires before a manifest's sources are fetched.
	OnBuildStart(ctx context.Context, project string, sources int)
	OnBuildComplete(ctx context.Context, project string, parts int, duration time.Duration, err error)

	// Compositing cannot fail, so its completion carries no error.
	OnComposeStart(ctx context.Context, parts int)
	OnComposeComplete(ctx context.Context, parts int, duration time.Duration)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// DecodeHooks receives one event per image decode attempt.
type DecodeHooks interface {
	OnDecode(ctx context.Context, name string, size int, duration time.Duration, err error)
}

// CacheHooks receives cache events. keyType is "artifact" or "source".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from remote source fetches.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError fires for transport failures; HTTP error statuses arrive
	// through OnResponse.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnBuildStart(context.Context, string, int)                          {}
func (NoopPipelineHooks) OnBuildComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnComposeStart(context.Context, int)                                {}
func (NoopPipelineHooks) OnComposeComplete(context.Context, int, time.Duration)              {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                            {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)   {}

// NoopDecodeHooks ignores decode events.
type NoopDecodeHooks struct{}

func (NoopDecodeHooks) OnDecode(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks ignores cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// slot holds the registered receiver for one hook family.
type slot[H any] struct {
	mu   sync.RWMutex
	cur  H
	noop H
}

func newSlot[H any](noop H) *slot[H] {
	return &slot[H]{cur: noop, noop: noop}
}

func (s *slot[H]) get() H {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// set installs h. A nil h is ignored.
func (s *slot[H]) set(h H) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.cur = h
	s.mu.Unlock()
}

func (s *slot[H]) reset() {
	s.mu.Lock()
	s.cur = s.noop
	s.mu.Unlock()
}

var (
	pipelineSlot = newSlot[PipelineHooks](NoopPipelineHooks{})
	decodeSlot   = newSlot[DecodeHooks](NoopDecodeHooks{})
	cacheSlot    = newSlot[CacheHooks](NoopCacheHooks{})
	httpSlot     = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetPipelineHooks installs h for pipeline events. Call it at startup.
func SetPipelineHooks(h PipelineHooks) { pipelineSlot.set(h) }

// SetDecodeHooks installs h for decode events.
func SetDecodeHooks(h DecodeHooks) { decodeSlot.set(h) }

// SetCacheHooks installs h for cache events.
func SetCacheHooks(h CacheHooks) { cacheSlot.set(h) }

// SetHTTPHooks installs h for remote source events.
func SetHTTPHooks(h HTTPHooks) { httpSlot.set(h) }

// Pipeline returns the current pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.get() }

// Decode returns the current decode hooks.
func Decode() DecodeHooks { return decodeSlot.get() }

// Cache returns the current cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// HTTP returns the current HTTP hooks.
func HTTP() HTTPHooks { return httpSlot.get() }

// Reset restores the no-op hooks everywhere. Tests use it to undo
// registrations.
func Reset() {
	pipelineSlot.reset()
	decodeSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
