package io

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/render/sink"
	"github.com/matzehuels/kitbash/pkg/scene"
)

func encodePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	data := encodePNG(t, 4, 3, color.NRGBA{R: 200, A: 128})

	img, err := Decode("red.png", data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Errorf("Bounds = %v, want (0,0)-(4,3)", img.Bounds())
	}
	if got := img.NRGBAAt(2, 1); got != (color.NRGBA{R: 200, A: 128}) {
		t.Errorf("pixel = %v, want {200 0 0 128}", got)
	}
}

func TestDecodeConvertsPaletted(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{
		color.NRGBA{A: 0},
		color.NRGBA{G: 255, A: 255},
	})
	pal.SetColorIndex(1, 0, 1)
	var buf bytes.Buffer
	if err := png.Encode(&buf, pal); err != nil {
		t.Fatalf("png.Encode() error: %v", err)
	}

	img, err := Decode("pal.png", buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{G: 255, A: 255}) {
		t.Errorf("pixel = %v, want {0 255 0 255}", got)
	}
	if got := img.NRGBAAt(0, 0); got.A != 0 {
		t.Errorf("alpha = %d, want 0", got.A)
	}
}

func TestDecodeFailure(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
		{"truncated png", encodePNG(t, 8, 8, color.NRGBA{A: 255})[:20]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.name, tt.data)
			if err == nil {
				t.Fatal("Decode() error = nil, want error")
			}
			if !errors.Is(err, errors.ErrCodeDecodeFailed) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeDecodeFailed)
			}
		})
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hat.png")
	if err := os.WriteFile(path, encodePNG(t, 2, 2, color.NRGBA{B: 255, A: 255}), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(path); err != nil {
		t.Fatalf("DecodeFile() error: %v", err)
	}

	_, err := DecodeFile(filepath.Join(dir, "missing.png"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("DecodeFile(missing) code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}

func TestFromRGBA(t *testing.T) {
	pix := []byte{
		255, 0, 0, 255, 0, 255, 0, 128,
	}
	img, err := FromRGBA(2, 1, pix)
	if err != nil {
		t.Fatalf("FromRGBA() error: %v", err)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{G: 255, A: 128}) {
		t.Errorf("pixel = %v, want {0 255 0 128}", got)
	}

	for _, tc := range []struct {
		w, h int
		n    int
	}{
		{2, 1, 7},
		{2, 2, 8},
		{0, 1, 0},
	} {
		if _, err := FromRGBA(tc.w, tc.h, make([]byte, tc.n)); !errors.Is(err, errors.ErrCodeDecodeFailed) {
			t.Errorf("FromRGBA(%d, %d, len %d) error = %v, want decode failure", tc.w, tc.h, tc.n, err)
		}
	}
}

func TestPartName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"head.png", "head"},
		{"parts/left arm.webp", "left arm"},
		{"https://example.com/a/hat.png?v=2", "hat"},
		{"noext", "noext"},
		{".png", ".png"},
	}
	for _, tt := range tests {
		if got := PartName(tt.in); got != tt.want {
			t.Errorf("PartName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImporterFlush(t *testing.T) {
	tree := scene.New()
	var mu sync.Mutex
	var failed []string
	imp := NewImporter(
		WithWorkers(2),
		WithQueueSize(1),
		WithFailureHandler(func(name string, err error) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, name)
		}),
	)

	const good = 10
	for i := 0; i < good; i++ {
		imp.Submit(fmt.Sprintf("part%d", i), encodePNG(t, 2, 2, color.NRGBA{R: uint8(i), A: 255}))
	}
	imp.Submit("broken", []byte("nope"))

	added := imp.Flush(tree, scene.NoID)
	if len(added) != good {
		t.Fatalf("Flush() added %d parts, want %d", len(added), good)
	}
	if len(tree.Roots) != good {
		t.Errorf("roots = %d, want %d", len(tree.Roots), good)
	}
	if len(failed) != 1 || failed[0] != "broken" {
		t.Errorf("failed = %v, want [broken]", failed)
	}

	seen := make(map[scene.ID]bool)
	for _, p := range added {
		if seen[p.ID] {
			t.Errorf("duplicate ID %d", p.ID)
		}
		seen[p.ID] = true
		if p.Source != p.Name {
			t.Errorf("Source = %q, want %q", p.Source, p.Name)
		}
	}

	if more := imp.Drain(tree, scene.NoID); len(more) != 0 {
		t.Errorf("Drain() after Flush added %d parts, want 0", len(more))
	}
}

func TestImporterDrainIntoGroup(t *testing.T) {
	tree := scene.New()
	g := tree.NewGroup("arms")
	if err := tree.Insert(g, scene.NoID); err != nil {
		t.Fatal(err)
	}

	imp := NewImporter()
	imp.SubmitSource("left", "parts/left.png", encodePNG(t, 1, 1, color.NRGBA{A: 255}))
	imp.Flush(tree, g.ID)

	if len(g.Children) != 1 {
		t.Fatalf("group children = %d, want 1", len(g.Children))
	}
	p := g.Children[0].(*scene.Part)
	if p.Name != "left" || p.Source != "parts/left.png" {
		t.Errorf("part = %q from %q, want left from parts/left.png", p.Name, p.Source)
	}
	if len(tree.Roots) != 1 {
		t.Errorf("roots = %d, want 1", len(tree.Roots))
	}
}

func TestImporterDrainDoesNotBlock(t *testing.T) {
	tree := scene.New()
	imp := NewImporter()
	if got := imp.Drain(tree, scene.NoID); len(got) != 0 {
		t.Errorf("Drain() on idle importer = %d parts, want 0", len(got))
	}
	if got := imp.Flush(tree, scene.NoID); len(got) != 0 {
		t.Errorf("Flush() on idle importer = %d parts, want 0", len(got))
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	entries := []sink.Entry{
		{Name: "composite.png", Data: []byte("a")},
		{Name: "layers/0_head.png", Data: []byte("b")},
	}

	paths, err := WriteArtifacts(dir, entries)
	if err != nil {
		t.Fatalf("WriteArtifacts() error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %d, want 2", len(paths))
	}
	got, err := os.ReadFile(filepath.Join(dir, "layers", "0_head.png"))
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(got) != "b" {
		t.Errorf("content = %q, want b", got)
	}

	if _, err := WriteArtifacts(dir, []sink.Entry{{Name: "../escape.png"}}); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("WriteArtifacts(traversal) error = %v, want invalid path", err)
	}
}
