package io

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/render/sink"
)

// WriteArtifacts writes each entry to dir under its entry name, creating dir
// if needed. Entry names must be relative paths without traversal. It returns
// the paths written, in entry order.
func WriteArtifacts(dir string, entries []sink.Entry) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := errors.ValidatePath(e.Name); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, filepath.FromSlash(e.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return paths, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, e.Data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
