package io

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/webp" // register WebP

	"github.com/matzehuels/kitbash/pkg/errors"
)

// Decode decodes an encoded image into a straight-alpha RGBA buffer. The name
// is only used in error messages. Any format registered with the image
// package is accepted.
func Decode(name string, data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeDecodeFailed, "%s: empty image data", name)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode %s", name)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, errors.New(errors.ErrCodeDecodeFailed, "%s: %s image has no pixels", name, format)
	}
	return toNRGBA(img), nil
}

// DecodeFile reads and decodes the image at path.
func DecodeFile(path string) (*image.NRGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "read %s", path)
	}
	return Decode(path, data)
}

// FromRGBA adopts a raw straight-alpha RGBA buffer of w×h pixels. The buffer
// is used in place, not copied.
func FromRGBA(w, h int, pix []byte) (*image.NRGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeDecodeFailed, "invalid image size %dx%d", w, h)
	}
	if want := w * h * 4; len(pix) != want {
		return nil, errors.New(errors.ErrCodeDecodeFailed, "pixel buffer has %d bytes, want %d for %dx%d", len(pix), want, w, h)
	}
	return &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, nil
}

// PartName derives a display name from a file name or URL: the base name
// without its extension.
func PartName(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	base := filepath.Base(filepath.FromSlash(ref))
	if base == "." || base == string(filepath.Separator) {
		return "part"
	}
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return base
}

// toNRGBA returns img as an origin-anchored NRGBA, converting from
// premultiplied or paletted models when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}
