// Package cache provides byte caches for rendered artifacts and fetched
// sources.
//
// Three backends implement [Cache]:
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON entry files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the server
//
// Keys are built by a [Keyer] so that the CLI and the server agree on the
// key layout. [ScopedKeyer] prefixes every key for tenant isolation.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored bytes and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs for the kinds of data kitbash caches.
const (
	// TTLArtifact applies to rendered outputs. Artifact keys are content
	// hashes, so entries only expire to bound disk use.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLSource applies to part images fetched over HTTP.
	TTLSource = 24 * time.Hour
)

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`
	Scale      int    `json:"scale"`
	Detailed   bool   `json:"detailed,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// SourceKey names the bytes behind a part source reference.
	SourceKey(ref string) string

	// ArtifactKey names one rendered output of a scene with the given
	// content hash.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SourceKey returns "source:{hash(ref)}".
func (DefaultKeyer) SourceKey(ref string) string {
	return hashKey("source", ref)
}

// ArtifactKey returns "artifact:{hash(sceneHash, opts)}".
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}

var _ Keyer = DefaultKeyer{}
