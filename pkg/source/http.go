package source

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/matzehuels/kitbash/pkg/cache"
	errs "github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/httputil"
	"github.com/matzehuels/kitbash/pkg/observability"
)

// HTTP fetches http(s) references and caches the bytes.
type HTTP struct {
	Client *httputil.Client
	Cache  cache.Cache
	Keyer  cache.Keyer

	// Refresh bypasses cached bytes (they are still written back).
	Refresh bool
}

// NewHTTP creates an HTTP source. Nil arguments get defaults: a client with
// retries, no caching, and the default keyer.
func NewHTTP(client *httputil.Client, c cache.Cache, keyer cache.Keyer) *HTTP {
	if client == nil {
		client = httputil.NewClient(map[string]string{"User-Agent": "kitbash"})
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &HTTP{Client: client, Cache: c, Keyer: keyer}
}

// Open returns the body at ref, from cache when possible.
func (h *HTTP) Open(ctx context.Context, ref string) ([]byte, error) {
	if err := errs.ValidateURL(ref); err != nil {
		return nil, err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "source %s", ref)
	}

	key := h.Keyer.SourceKey(ref)
	if !h.Refresh {
		if data, ok, _ := h.Cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, "source")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "source")
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, "GET", u.Host, u.Path)
	start := time.Now()
	data, err := h.Client.GetBytes(ctx, ref)
	if err != nil {
		hooks.OnError(ctx, "GET", u.Host, u.Path, err)
		if errors.Is(err, httputil.ErrNotFound) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "source %s", ref)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.Wrap(errs.ErrCodeTimeout, err, "source %s", ref)
		}
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "source %s", ref)
	}
	hooks.OnResponse(ctx, "GET", u.Host, u.Path, 200, time.Since(start))

	if err := h.Cache.Set(ctx, key, data, cache.TTLSource); err == nil {
		observability.Cache().OnCacheSet(ctx, "source", len(data))
	}
	return data, nil
}

var _ Source = (*HTTP)(nil)
