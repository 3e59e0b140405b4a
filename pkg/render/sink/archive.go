package sink

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Standard archive entry names.
const (
	CompositeEntry = "composite.png"
	MetadataEntry  = "data.json"
)

// Entry is a named byte stream destined for an archive or a directory.
type Entry struct {
	Name string
	Data []byte
}

var entryNameReplacer = strings.NewReplacer("/", "_", "\\", "_", "\x00", "")

// LayerEntryName returns the file name for the layer at index i, as
// "{i}_{name}.png". Path separators in name are replaced.
func LayerEntryName(i int, name string) string {
	return fmt.Sprintf("%d_%s.png", i, entryNameReplacer.Replace(name))
}

// RenderArchive packs entries into a deflated zip in the given order.
func RenderArchive(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadArchive unpacks a zip produced by [RenderArchive].
func ReadArchive(data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Data: b})
	}
	return entries, nil
}
