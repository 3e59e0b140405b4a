package cache

import (
	"context"
	"time"
)

// NullCache backs `--no-cache` runs: source fetches and rendered artifacts
// always miss, and writes are dropped, so every compose renders from scratch.
type NullCache struct{}

var _ Cache = NullCache{}

// NewNullCache returns the cache used when caching is switched off or the
// on-disk cache directory cannot be created.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NullCache) Delete(context.Context, string) error { return nil }

func (NullCache) Close() error { return nil }
