// Package source resolves part source references to encoded image bytes.
//
// A reference is either a path relative to the project directory or an
// http(s) URL. [Multi] dispatches on the form:
//
//	src := source.NewMulti(source.NewLocal(dir), source.NewHTTP(client, c, nil))
//	data, err := src.Open(ctx, "parts/head.png")
//
// All errors carry a pkg/errors code: INVALID_PATH or INVALID_INPUT for bad
// references, FILE_NOT_FOUND for missing files and 404s, NETWORK_ERROR for
// everything else that went wrong on the wire.
package source

import (
	"context"
	"os"
	"path/filepath"

	errs "github.com/matzehuels/kitbash/pkg/errors"
)

// Source opens a reference and returns its bytes.
type Source interface {
	Open(ctx context.Context, ref string) ([]byte, error)
}

// Local reads references as paths relative to Root.
type Local struct {
	Root string
}

// NewLocal creates a local source rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{Root: dir}
}

// Open reads Root/ref. Absolute paths and traversal out of Root are rejected.
func (l *Local) Open(ctx context.Context, ref string) ([]byte, error) {
	if err := errs.ValidatePath(ref); err != nil {
		return nil, err
	}
	path := filepath.Join(l.Root, filepath.FromSlash(ref))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "source %s", ref)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "source %s", ref)
	}
	return data, nil
}

// Memory serves references from an in-memory map, e.g. files from a
// multipart upload.
type Memory map[string][]byte

// Open returns the bytes stored under ref.
func (m Memory) Open(ctx context.Context, ref string) ([]byte, error) {
	data, ok := m[ref]
	if !ok {
		return nil, errs.New(errs.ErrCodeFileNotFound, "source %s was not uploaded", ref)
	}
	return data, nil
}

// Multi sends URLs to Remote and everything else to Local.
type Multi struct {
	Local  Source
	Remote Source
}

// NewMulti creates a dispatching source. Either side may be nil, in which
// case references of that kind are unsupported.
func NewMulti(local, remote Source) *Multi {
	return &Multi{Local: local, Remote: remote}
}

// Open dispatches ref by its form.
func (m *Multi) Open(ctx context.Context, ref string) ([]byte, error) {
	if err := errs.ValidateSource(ref); err != nil {
		return nil, err
	}
	target := m.Local
	if errs.IsURL(ref) {
		target = m.Remote
	}
	if target == nil {
		return nil, errs.New(errs.ErrCodeUnsupported, "no source configured for %s", ref)
	}
	return target.Open(ctx, ref)
}

var (
	_ Source = (*Local)(nil)
	_ Source = Memory(nil)
	_ Source = (*Multi)(nil)
)
