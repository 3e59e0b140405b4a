package scene

import "image"

// ID identifies a node within a tree. IDs start at 1; [NoID] means "none"
// (for example, no selected group).
type ID uint64

// NoID is the zero ID. It never names a node.
const NoID ID = 0

// Header holds the fields common to both node kinds.
type Header struct {
	ID        ID
	Name      string
	Transform Transform
	Visible   bool
}

// Node is either a *Part or a *Group. The set is closed: the interface is
// sealed, and traversal code switches exhaustively over the two kinds.
type Node interface {
	// Head returns the node's common fields for reading and writing.
	Head() *Header
	isNode()
}

// Head returns h. It is promoted to Part and Group.
func (h *Header) Head() *Header { return h }

// Part is a leaf node wrapping one decoded image.
type Part struct {
	Header

	// Image holds the decoded source pixels (straight alpha). It is never
	// modified after decode; resampling always produces a new buffer.
	Image *image.NRGBA

	// Source records where the pixels came from (file path or URL), if known.
	Source string
}

// Group is a container node that owns an ordered sequence of children.
type Group struct {
	Header
	Children []Node
}

func (*Part) isNode()  {}
func (*Group) isNode() {}

// Size returns the source image dimensions, or 0,0 for a part without pixels.
func (p *Part) Size() (w, h int) {
	if p.Image == nil {
		return 0, 0
	}
	b := p.Image.Bounds()
	return b.Dx(), b.Dy()
}

// HeaderOf returns n's common fields.
func HeaderOf(n Node) *Header { return n.Head() }

// TransformOf returns a pointer to n's local transform for in-place editing.
func TransformOf(n Node) *Transform { return &n.Head().Transform }

// SetVisible sets n's own visibility flag. Effective visibility also depends
// on every ancestor.
func SetVisible(n Node, visible bool) { n.Head().Visible = visible }

// IsGroup reports whether n is a *Group.
func IsGroup(n Node) bool {
	_, ok := n.(*Group)
	return ok
}
