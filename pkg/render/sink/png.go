package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// PNGOption configures PNG encoding.
type PNGOption func(*png.Encoder)

// WithCompression sets the zlib compression level (default png.DefaultCompression).
func WithCompression(level png.CompressionLevel) PNGOption {
	return func(e *png.Encoder) { e.CompressionLevel = level }
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image, opts ...PNGOption) ([]byte, error) {
	enc := &png.Encoder{CompressionLevel: png.DefaultCompression}
	for _, opt := range opts {
		opt(enc)
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
