package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kitbash/pkg/cache"
	"github.com/matzehuels/kitbash/pkg/compose"
	"github.com/matzehuels/kitbash/pkg/observability"
	"github.com/matzehuels/kitbash/pkg/render/sink"
	"github.com/matzehuels/kitbash/pkg/render/treeview"
	"github.com/matzehuels/kitbash/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can use the same Runner as long as each renders its own tree.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute renders every requested format for t.
func (r *Runner) Execute(ctx context.Context, t *scene.Tree, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	w, h := opts.Canvas.Size()
	result := &Result{
		SceneHash: Fingerprint(t),
		Metadata:  compose.DeriveMetadata(t),
		Stats: Stats{
			Nodes:  t.Len(),
			Parts:  len(t.Parts()),
			Width:  w,
			Height: h,
		},
	}

	start := time.Now()
	artifacts, layers, info, err := r.RenderWithCacheInfo(ctx, t, result.SceneHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Layers = layers
	result.CacheInfo = info
	result.Stats.RenderTime = time.Since(start)

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"size", fmt.Sprintf("%dx%d", w, h),
		"cached", info.Hits,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// RenderWithCacheInfo produces the requested formats, serving each from the
// cache when possible, and reports which ones were hits.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, t *scene.Tree, sceneHash string, opts Options) (map[string][]byte, []sink.Entry, CacheInfo, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, nil, CacheInfo{}, err
	}

	artifacts := make(map[string][]byte)
	var layers []sink.Entry
	var info CacheInfo
	var missing []string

	for _, format := range opts.Formats {
		if opts.Refresh {
			missing = append(missing, format)
			continue
		}
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format)))
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			missing = append(missing, format)
			continue
		}
		if format == FormatLayers {
			entries, err := sink.ReadArchive(data)
			if err != nil {
				missing = append(missing, format)
				continue
			}
			layers = entries
		} else {
			artifacts[format] = data
		}
		observability.Cache().OnCacheHit(ctx, "artifact")
		info.Hits++
	}

	if len(missing) == 0 {
		info.RenderHit = true
		return artifacts, layers, info, nil
	}

	rendered, renderedLayers, err := r.render(ctx, t, opts, missing)
	if err != nil {
		return nil, nil, CacheInfo{}, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		r.store(ctx, sceneHash, opts, format, data)
	}
	if renderedLayers != nil {
		layers = renderedLayers
		if packed, err := sink.RenderArchive(renderedLayers); err == nil {
			r.store(ctx, sceneHash, opts, FormatLayers, packed)
		}
	}
	return artifacts, layers, info, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Render(ctx context.Context, t *scene.Tree, opts Options) (map[string][]byte, []sink.Entry, error) {
	artifacts, layers, _, err := r.RenderWithCacheInfo(ctx, t, Fingerprint(t), opts)
	return artifacts, layers, err
}

func (r *Runner) store(ctx context.Context, sceneHash string, opts Options, format string, data []byte) {
	key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		opts.Logger.Debug("cache write failed", "format", format, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "artifact", len(data))
}

// render produces formats from scratch. The composite and the per-layer
// images are computed at most once and shared between formats.
func (r *Runner) render(ctx context.Context, t *scene.Tree, opts Options, formats []string) (map[string][]byte, []sink.Entry, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	rs := &renderState{ctx: ctx, tree: t, canvas: opts.Canvas}
	out := make(map[string][]byte, len(formats))
	var layers []sink.Entry
	var err error

	for _, format := range formats {
		if err = ctx.Err(); err != nil {
			break
		}
		switch format {
		case FormatPNG:
			out[format], err = sink.EncodePNG(rs.composite())
		case FormatJSON:
			out[format], err = sink.RenderJSON(compose.DeriveMetadata(t))
		case FormatLayers:
			layers, err = rs.layerEntries()
		case FormatZIP:
			out[format], err = rs.archive()
		case FormatSVG:
			out[format], err = treeview.RenderSVG(ctx, treeview.ToDOT(t, treeview.Options{Detailed: opts.Detailed}))
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			err = fmt.Errorf("%s: %w", format, err)
			break
		}
	}

	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return out, layers, nil
}

type renderState struct {
	ctx    context.Context
	tree   *scene.Tree
	canvas compose.Canvas

	img    *image.NRGBA
	layers []sink.Entry
}

func (s *renderState) composite() *image.NRGBA {
	if s.img == nil {
		hooks := observability.Pipeline()
		parts := len(compose.Flatten(s.tree))
		hooks.OnComposeStart(s.ctx, parts)
		start := time.Now()
		s.img = compose.Composite(s.canvas, s.tree)
		hooks.OnComposeComplete(s.ctx, parts, time.Since(start))
	}
	return s.img
}

func (s *renderState) layerEntries() ([]sink.Entry, error) {
	if s.layers != nil {
		return s.layers, nil
	}
	rendered := compose.RenderLayers(s.canvas, s.tree)
	entries := make([]sink.Entry, 0, len(rendered))
	for i, l := range rendered {
		data, err := sink.EncodePNG(l.Image)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Item.Name, err)
		}
		entries = append(entries, sink.Entry{Name: sink.LayerEntryName(i, l.Item.Name), Data: data})
	}
	s.layers = entries
	return entries, nil
}

func (s *renderState) archive() ([]byte, error) {
	png, err := sink.EncodePNG(s.composite())
	if err != nil {
		return nil, err
	}
	meta, err := sink.RenderJSON(compose.DeriveMetadata(s.tree))
	if err != nil {
		return nil, err
	}
	layers, err := s.layerEntries()
	if err != nil {
		return nil, err
	}
	entries := make([]sink.Entry, 0, len(layers)+2)
	entries = append(entries,
		sink.Entry{Name: sink.CompositeEntry, Data: png},
		sink.Entry{Name: sink.MetadataEntry, Data: meta},
	)
	entries = append(entries, layers...)
	return sink.RenderArchive(entries)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
