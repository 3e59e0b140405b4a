package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("png-bytes"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get(k) = hit %v, err %v; want hit", hit, err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Get(k) = %q, want png-bytes", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "fresh", []byte("y"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("z"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	removed, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune() removed %d, want 1", removed)
	}
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should miss")
	}
	for _, key := range []string{"fresh", "forever"} {
		if _, hit, _ := c.Get(ctx, key); !hit {
			t.Errorf("Get(%s) should hit", key)
		}
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	type meta struct{ Parts int }
	var got meta
	if err := GetJSON(ctx, c, "m", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON(missing) error = %v, want ErrCacheMiss", err)
	}
	if err := SetJSON(ctx, c, "m", meta{Parts: 3}, time.Hour); err != nil {
		t.Fatalf("SetJSON() error: %v", err)
	}
	if err := GetJSON(ctx, c, "m", &got); err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if got.Parts != 3 {
		t.Errorf("Parts = %d, want 3", got.Parts)
	}

	_ = c.Set(ctx, "bad", []byte("nope"), 0)
	if err := GetJSON(ctx, c, "bad", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON(bad) error = %v, want ErrCacheMiss", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if !strings.HasPrefix(k.SourceKey("parts/head.png"), "source:") {
		t.Errorf("SourceKey should be prefixed: %s", k.SourceKey("parts/head.png"))
	}
	if k.SourceKey("a.png") == k.SourceKey("b.png") {
		t.Error("Different refs should produce different keys")
	}

	base := ArtifactKeyOpts{Format: "png", Width: 64, Height: 64, Background: "#000000ff", Scale: 1}
	variants := []ArtifactKeyOpts{
		{Format: "zip", Width: 64, Height: 64, Background: "#000000ff", Scale: 1},
		{Format: "png", Width: 65, Height: 64, Background: "#000000ff", Scale: 1},
		{Format: "png", Width: 64, Height: 64, Background: "#ffffffff", Scale: 1},
		{Format: "png", Width: 64, Height: 64, Background: "#000000ff", Scale: 2},
	}
	ak := k.ArtifactKey("scene123", base)
	if ak != k.ArtifactKey("scene123", base) {
		t.Error("ArtifactKey should be deterministic")
	}
	if ak == k.ArtifactKey("scene456", base) {
		t.Error("Different scene hashes should produce different keys")
	}
	for _, v := range variants {
		if ak == k.ArtifactKey("scene123", v) {
			t.Errorf("ArtifactKey(%+v) collides with base options", v)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "project:123:")

	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(got, "project:123:artifact:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", got)
	}
	if got := scoped.SourceKey("a.png"); !strings.HasPrefix(got, "project:123:source:") {
		t.Errorf("ScopedKeyer SourceKey should be prefixed: %s", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if key := scoped.SourceKey("a.png"); key != "prefix:"+NewDefaultKeyer().SourceKey("a.png") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}
