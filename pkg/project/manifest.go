// Package project reads and writes kitbash project manifests.
//
// A manifest is a TOML file describing the canvas and the part tree. Part
// images are referenced by source (a path relative to the manifest, or an
// http(s) URL) and decoded when the manifest is built into a scene:
//
//	name = "robot"
//
//	[canvas]
//	width = 64
//	height = 64
//	background = "#1e1e2e"
//	scale = 4
//
//	[[nodes]]
//	name = "body"
//	source = "parts/body.png"
//
//	[[nodes]]
//	kind = "group"
//	name = "head"
//	offset = [26, 4]
//
//	  [[nodes.children]]
//	  name = "face"
//	  source = "parts/face.png"
//	  scale = 1.5
//
// Node order is paint order: earlier nodes are drawn first.
package project

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/kitbash/pkg/compose"
	errs "github.com/matzehuels/kitbash/pkg/errors"
)

// Canvas limits. Sizes outside [MinCanvasSize, MaxCanvasSize] and export
// scales outside [MinExportScale, MaxExportScale] are rejected.
const (
	MinCanvasSize  = 16
	MaxCanvasSize  = 1024
	MinExportScale = 1
	MaxExportScale = 10

	DefaultCanvasSize = 64
)

// MaxNodeScale bounds the scale of a single part or group.
const MaxNodeScale = 100

// Node kinds.
const (
	KindPart  = "part"
	KindGroup = "group"
)

// Manifest is the on-disk project description.
type Manifest struct {
	Name   string       `toml:"name,omitempty"`
	Canvas CanvasConfig `toml:"canvas"`
	Nodes  []NodeConfig `toml:"nodes,omitempty"`
}

// CanvasConfig describes the output raster.
type CanvasConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background,omitempty"`
	Scale      int    `toml:"scale,omitempty"`
}

// NodeConfig is one part or group. Kind defaults to "part".
type NodeConfig struct {
	Kind     string       `toml:"kind,omitempty"`
	Name     string       `toml:"name"`
	Source   string       `toml:"source,omitempty"`
	Offset   []float64    `toml:"offset,omitempty"`
	Scale    float64      `toml:"scale,omitempty"`
	Hidden   bool         `toml:"hidden,omitempty"`
	Children []NodeConfig `toml:"children,omitempty"`
}

// New returns a manifest with the default canvas and no nodes.
func New(name string) *Manifest {
	m := &Manifest{Name: name}
	m.SetDefaults()
	return m
}

// IsGroup reports whether n is a group.
func (n NodeConfig) IsGroup() bool { return n.Kind == KindGroup }

// OffsetXY returns the offset, treating a missing value as the origin.
func (n NodeConfig) OffsetXY() (x, y float64) {
	if len(n.Offset) == 2 {
		return n.Offset[0], n.Offset[1]
	}
	return 0, 0
}

// ScaleOrDefault returns the node's scale, with 0 meaning 1.
func (n NodeConfig) ScaleOrDefault() float64 {
	if n.Scale == 0 {
		return 1
	}
	return n.Scale
}

// SetDefaults fills zero values: a 64×64 canvas, a transparent background and
// an export scale of 1.
func (m *Manifest) SetDefaults() {
	if m.Canvas.Width == 0 {
		m.Canvas.Width = DefaultCanvasSize
	}
	if m.Canvas.Height == 0 {
		m.Canvas.Height = DefaultCanvasSize
	}
	if m.Canvas.Background == "" {
		m.Canvas.Background = "transparent"
	}
	if m.Canvas.Scale == 0 {
		m.Canvas.Scale = MinExportScale
	}
}

// Validate checks canvas limits and every node.
func (m *Manifest) Validate() error {
	c := m.Canvas
	if c.Width < MinCanvasSize || c.Width > MaxCanvasSize || c.Height < MinCanvasSize || c.Height > MaxCanvasSize {
		return errs.New(errs.ErrCodeInvalidCanvas, "canvas %dx%d out of range (%d..%d)", c.Width, c.Height, MinCanvasSize, MaxCanvasSize)
	}
	if c.Scale < MinExportScale || c.Scale > MaxExportScale {
		return errs.New(errs.ErrCodeInvalidCanvas, "export scale %d out of range (%d..%d)", c.Scale, MinExportScale, MaxExportScale)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return err
	}
	return validateNodes(m.Nodes, "nodes")
}

func validateNodes(nodes []NodeConfig, path string) error {
	for i, n := range nodes {
		at := fmt.Sprintf("%s[%d]", path, i)
		if err := errs.ValidateName(n.Name); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidManifest, err, "%s", at)
		}
		if len(n.Offset) != 0 && len(n.Offset) != 2 {
			return errs.New(errs.ErrCodeInvalidManifest, "%s (%s): offset must be [x, y]", at, n.Name)
		}
		if math.IsNaN(n.Scale) || n.Scale < 0 || n.Scale > MaxNodeScale {
			return errs.New(errs.ErrCodeInvalidManifest, "%s (%s): scale must be between 0 and %d", at, n.Name, MaxNodeScale)
		}
		switch n.Kind {
		case "", KindPart:
			if n.Source == "" {
				return errs.New(errs.ErrCodeInvalidManifest, "%s (%s): part needs a source", at, n.Name)
			}
			if err := errs.ValidateSource(n.Source); err != nil {
				return errs.Wrap(errs.ErrCodeInvalidManifest, err, "%s (%s)", at, n.Name)
			}
			if len(n.Children) > 0 {
				return errs.New(errs.ErrCodeInvalidManifest, "%s (%s): parts cannot have children", at, n.Name)
			}
		case KindGroup:
			if n.Source != "" {
				return errs.New(errs.ErrCodeInvalidManifest, "%s (%s): groups cannot have a source", at, n.Name)
			}
			if err := validateNodes(n.Children, at+".children"); err != nil {
				return err
			}
		default:
			return errs.New(errs.ErrCodeInvalidManifest, "%s (%s): unknown kind %q", at, n.Name, n.Kind)
		}
	}
	return nil
}

// CanvasSpec converts the canvas section for the compositor.
func (m *Manifest) CanvasSpec() (compose.Canvas, error) {
	bg, err := ParseColor(m.Canvas.Background)
	if err != nil {
		return compose.Canvas{}, err
	}
	return compose.Canvas{
		Width:      m.Canvas.Width,
		Height:     m.Canvas.Height,
		Background: bg,
		Scale:      m.Canvas.Scale,
	}, nil
}

// Sources returns every part source in pre-order, without duplicates.
func (m *Manifest) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	var walk func([]NodeConfig)
	walk = func(nodes []NodeConfig) {
		for _, n := range nodes {
			if n.IsGroup() {
				walk(n.Children)
				continue
			}
			if !seen[n.Source] {
				seen[n.Source] = true
				out = append(out, n.Source)
			}
		}
	}
	walk(m.Nodes)
	return out
}

// Parse decodes, defaults and validates a manifest. Unknown keys are errors.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidManifest, err, "parse manifest")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidManifest, "unknown manifest key %q", undecoded[0].String())
	}
	m.SetDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "manifest %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Encode renders m as TOML.
func Encode(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = "  "
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Save validates m and writes it to path, replacing the file atomically.
func Save(path string, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := Encode(m)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".kitbash-*.toml")
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
