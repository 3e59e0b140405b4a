package cache

// ScopedKeyer wraps a Keyer with a prefix so that several tenants can share
// one cache backend without seeing each other's entries.
//
// Example usage:
//
//	// Per-project keys on the shared server cache
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "project:"+id+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SourceKey generates a prefixed key for source bytes.
func (k *ScopedKeyer) SourceKey(ref string) string {
	return k.prefix + k.inner.SourceKey(ref)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sceneHash, opts)
}
