package project

import (
	"context"
	"image"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/kitbash/pkg/compose"
	kio "github.com/matzehuels/kitbash/pkg/io"
	"github.com/matzehuels/kitbash/pkg/observability"
	"github.com/matzehuels/kitbash/pkg/scene"
	"github.com/matzehuels/kitbash/pkg/source"
)

// BuildOption configures [Build].
type BuildOption func(*buildConfig)

type buildConfig struct {
	workers int
	skip    func(ref string, err error)
}

// WithWorkers limits concurrent fetch-and-decode jobs (default NumCPU).
func WithWorkers(n int) BuildOption { return func(c *buildConfig) { c.workers = n } }

// WithSkipFailed makes Build skip parts whose source cannot be fetched or
// decoded, reporting each to fn, instead of failing.
func WithSkipFailed(fn func(ref string, err error)) BuildOption {
	return func(c *buildConfig) { c.skip = fn }
}

// Build fetches and decodes every source concurrently, then assembles the
// scene tree in manifest order on the calling goroutine. Each distinct source
// is decoded once; parts sharing a source share its (immutable) pixels.
func Build(ctx context.Context, m *Manifest, src source.Source, opts ...BuildOption) (*scene.Tree, compose.Canvas, error) {
	cfg := buildConfig{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}

	canvas, err := m.CanvasSpec()
	if err != nil {
		return nil, compose.Canvas{}, err
	}

	refs := m.Sources()
	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, m.Name, len(refs))
	start := time.Now()

	images, err := decodeAll(ctx, src, refs, cfg)
	if err != nil {
		hooks.OnBuildComplete(ctx, m.Name, 0, time.Since(start), err)
		return nil, compose.Canvas{}, err
	}

	t := scene.New()
	for _, n := range m.Nodes {
		attach(t, scene.NoID, n, images)
	}
	hooks.OnBuildComplete(ctx, m.Name, len(t.Parts()), time.Since(start), nil)
	return t, canvas, nil
}

func decodeAll(ctx context.Context, src source.Source, refs []string, cfg buildConfig) (map[string]*image.NRGBA, error) {
	results := make([]*image.NRGBA, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.workers, 1))
	for i, ref := range refs {
		g.Go(func() error {
			data, err := src.Open(gctx, ref)
			if err == nil {
				start := time.Now()
				results[i], err = kio.Decode(ref, data)
				observability.Decode().OnDecode(gctx, ref, len(data), time.Since(start), err)
			}
			if err != nil && cfg.skip != nil {
				cfg.skip(ref, err)
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := make(map[string]*image.NRGBA, len(refs))
	for i, ref := range refs {
		if results[i] != nil {
			images[ref] = results[i]
		}
	}
	return images, nil
}

// attach inserts n (and its subtree) under parent. Parts whose source was
// skipped are left out; their groups are still created.
func attach(t *scene.Tree, parent scene.ID, n NodeConfig, images map[string]*image.NRGBA) {
	var node scene.Node
	if n.IsGroup() {
		node = t.NewGroup(n.Name)
	} else {
		img, ok := images[n.Source]
		if !ok {
			return
		}
		p := t.NewPart(n.Name, img)
		p.Source = n.Source
		node = p
	}

	h := node.Head()
	x, y := n.OffsetXY()
	h.Transform = scene.Transform{Offset: scene.Vec2{X: x, Y: y}, Scale: n.ScaleOrDefault()}
	h.Visible = !n.Hidden
	// Fresh IDs from this tree never collide.
	_ = t.Insert(node, parent)

	if g, ok := node.(*scene.Group); ok {
		for _, c := range n.Children {
			attach(t, g.ID, c, images)
		}
	}
}

// FromTree captures a scene tree and canvas as a manifest, for saving edits.
// Parts keep their recorded source.
func FromTree(name string, t *scene.Tree, c compose.Canvas) *Manifest {
	m := &Manifest{
		Name: name,
		Canvas: CanvasConfig{
			Width:      c.Width,
			Height:     c.Height,
			Background: FormatColor(c.Background),
			Scale:      max(c.Scale, MinExportScale),
		},
		Nodes: nodeConfigs(t.Roots),
	}
	return m
}

func nodeConfigs(seq []scene.Node) []NodeConfig {
	if len(seq) == 0 {
		return nil
	}
	out := make([]NodeConfig, 0, len(seq))
	for _, n := range seq {
		h := n.Head()
		nc := NodeConfig{
			Name:   h.Name,
			Hidden: !h.Visible,
		}
		if o := h.Transform.Offset; o.X != 0 || o.Y != 0 {
			nc.Offset = []float64{o.X, o.Y}
		}
		if s := h.Transform.Scale; s != 1 {
			nc.Scale = s
		}
		switch n := n.(type) {
		case *scene.Part:
			nc.Source = n.Source
		case *scene.Group:
			nc.Kind = KindGroup
			nc.Children = nodeConfigs(n.Children)
		}
		out = append(out, nc)
	}
	return out
}
