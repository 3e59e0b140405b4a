// Package pipeline turns a built scene tree into output artifacts.
//
// Every entry point (the CLI, the HTTP server, the editor's save-and-export)
// goes through the same [Runner], so the composite, the metadata and the
// archive layout never drift between them.
//
// # Formats
//
//   - png: the composite image
//   - json: per-part metadata ({name, scale, offset}) in paint order
//   - zip: composite.png, data.json and one PNG per layer
//   - layers: the per-layer PNGs, returned individually in [Result.Layers]
//   - svg: a Graphviz diagram of the tree hierarchy
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, tree, pipeline.Options{
//	    Canvas:  canvas,
//	    Formats: []string{"png", "json"},
//	})
//	if err != nil {
//	    return err
//	}
//	png := result.Artifacts["png"]
//
// Artifacts are cached under a fingerprint of the tree (structure,
// transforms, visibility and pixel content) and the render options, so
// re-exporting an unchanged project is a cache lookup.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kitbash/pkg/cache"
	"github.com/matzehuels/kitbash/pkg/compose"
	errs "github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/render/sink"
)

// Format constants for output formats.
const (
	FormatPNG    = "png"
	FormatJSON   = "json"
	FormatZIP    = "zip"
	FormatLayers = "layers"
	FormatSVG    = "svg"
)

// DefaultFormat is rendered when no formats are requested.
const DefaultFormat = FormatPNG

// MaxExportScale bounds the integer export multiplier.
const MaxExportScale = 10

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:    true,
	FormatJSON:   true,
	FormatZIP:    true,
	FormatLayers: true,
	FormatSVG:    true,
}

// Options configures one pipeline run.
type Options struct {
	// Canvas is the output raster: size, background and export scale.
	Canvas compose.Canvas

	// Formats lists the artifacts to produce. Defaults to [DefaultFormat].
	Formats []string

	// Detailed adds offsets and scales to the svg tree diagram.
	Detailed bool

	// Refresh bypasses cached artifacts (results are still written back).
	Refresh bool

	// Logger receives progress messages. Defaults to the runner's logger.
	Logger *log.Logger
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// SceneHash is the content fingerprint of the rendered tree.
	SceneHash string

	// Artifacts contains rendered outputs keyed by format. The layers format
	// is not stored here; see Layers.
	Artifacts map[string][]byte

	// Layers holds one PNG per visible part in paint order when the layers
	// format was requested.
	Layers []sink.Entry

	// Metadata is the per-part placement in paint order. It is always filled.
	Metadata []compose.Record

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which outputs came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes      int
	Parts      int
	Width      int
	Height     int
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for a run.
type CacheInfo struct {
	RenderHit bool // Whether every requested artifact came from cache
	Hits      int  // Number of formats served from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: png, json, zip, layers, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCanvas checks the canvas size and export scale.
func ValidateCanvas(c compose.Canvas) error {
	if c.Width <= 0 || c.Height <= 0 {
		return errs.New(errs.ErrCodeInvalidCanvas, "canvas size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Scale < 1 || c.Scale > MaxExportScale {
		return errs.New(errs.ErrCodeInvalidCanvas, "export scale must be between 1 and %d, got %d", MaxExportScale, c.Scale)
	}
	return nil
}

// SetDefaults fills unset options. It is idempotent.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.Formats = dedupe(o.Formats)
	if o.Canvas.Scale == 0 {
		o.Canvas.Scale = 1
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks formats and canvas.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateCanvas(o.Canvas)
}

// Wants reports whether format was requested.
func (o *Options) Wants(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	bg := o.Canvas.Background
	return cache.ArtifactKeyOpts{
		Format:     format,
		Width:      o.Canvas.Width,
		Height:     o.Canvas.Height,
		Background: fmt.Sprintf("%02x%02x%02x%02x", bg.R, bg.G, bg.B, bg.A),
		Scale:      o.Canvas.Scale,
		Detailed:   o.Detailed && format == FormatSVG,
	}
}

func dedupe(formats []string) []string {
	seen := make(map[string]bool, len(formats))
	out := formats[:0:0]
	for _, f := range formats {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
