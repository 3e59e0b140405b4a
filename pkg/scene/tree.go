package scene

import (
	"errors"
	"image"
)

var (
	// ErrNilNode is returned by [Tree.Insert] when the node is nil.
	ErrNilNode = errors.New("node must not be nil")

	// ErrDuplicateID is returned by [Tree.Insert] when the node, or any node in
	// its subtree, has an ID that is already present in the tree.
	ErrDuplicateID = errors.New("duplicate node ID")
)

// Direction is a sibling move for [Reorder].
type Direction int

const (
	// Up moves a node one position earlier (further back in paint order).
	Up Direction = -1
	// Down moves a node one position later (further forward in paint order).
	Down Direction = 1
)

// Tree is an ordered sequence of root nodes plus the ID counter that names
// them. The zero value is not usable; create trees with [New].
type Tree struct {
	Roots []Node

	next ID
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{next: 1}
}

func (t *Tree) allocID() ID {
	id := t.next
	t.next++
	return id
}

// NewPart creates a visible part with the identity transform and a fresh ID.
// The part is not attached; use [Tree.Insert].
func (t *Tree) NewPart(name string, img *image.NRGBA) *Part {
	return &Part{
		Header: Header{ID: t.allocID(), Name: name, Transform: Identity(), Visible: true},
		Image:  img,
	}
}

// NewGroup creates an empty visible group with the identity transform and a
// fresh ID. The group is not attached; use [Tree.Insert].
func (t *Tree) NewGroup(name string) *Group {
	return &Group{
		Header: Header{ID: t.allocID(), Name: name, Transform: Identity(), Visible: true},
	}
}

// Find returns the first node with the given id in depth-first pre-order.
// A missing id is a normal outcome and returns false.
func (t *Tree) Find(id ID) (Node, bool) {
	return find(t.Roots, id)
}

func find(seq []Node, id ID) (Node, bool) {
	for _, n := range seq {
		if n.Head().ID == id {
			return n, true
		}
		if g, ok := n.(*Group); ok {
			if found, ok := find(g.Children, id); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// Delete removes the node with the given id, together with its subtree, from
// wherever it lives. The root sequence is searched first, then each group in
// order. It reports whether anything was removed.
func (t *Tree) Delete(id ID) bool {
	var ok bool
	t.Roots, ok = remove(t.Roots, id)
	return ok
}

func remove(seq []Node, id ID) ([]Node, bool) {
	for i, n := range seq {
		if n.Head().ID == id {
			copy(seq[i:], seq[i+1:])
			seq[len(seq)-1] = nil
			return seq[:len(seq)-1], true
		}
	}
	for _, n := range seq {
		if g, ok := n.(*Group); ok {
			var removed bool
			if g.Children, removed = remove(g.Children, id); removed {
				return seq, true
			}
		}
	}
	return seq, false
}

// Insert appends n to the children of the group named by target, or to the
// root sequence when target is [NoID] or does not resolve to a group.
//
// Insert rejects a node whose ID, or any ID in its subtree, already exists in
// the tree. Nodes should be created by this tree's NewPart and NewGroup.
func (t *Tree) Insert(n Node, target ID) error {
	if n == nil {
		return ErrNilNode
	}
	conflict := false
	walk([]Node{n}, 0, func(c Node, _ int) bool {
		if _, ok := t.Find(c.Head().ID); ok {
			conflict = true
			return false
		}
		return true
	})
	if conflict {
		return ErrDuplicateID
	}

	if target != NoID {
		if found, ok := t.Find(target); ok {
			if g, ok := found.(*Group); ok {
				g.Children = append(g.Children, n)
				return nil
			}
		}
	}
	t.Roots = append(t.Roots, n)
	return nil
}

// Reorder swaps seq[index] with its neighbour in direction dir. Moves that
// would leave the sequence (the first item up, the last item down) or an
// out-of-range index are rejected: seq is left untouched and false is
// returned.
func Reorder(seq []Node, index int, dir Direction) bool {
	to := index + int(dir)
	if index < 0 || index >= len(seq) || to < 0 || to >= len(seq) || to == index {
		return false
	}
	seq[index], seq[to] = seq[to], seq[index]
	return true
}

// Move reorders the node with the given id within the sequence that contains
// it. Nodes never change parent through Move.
func (t *Tree) Move(id ID, dir Direction) bool {
	seq, idx, ok := t.Siblings(id)
	if !ok {
		return false
	}
	return Reorder(seq, idx, dir)
}

// Siblings returns the sequence containing the node with the given id and the
// node's index within it.
func (t *Tree) Siblings(id ID) ([]Node, int, bool) {
	return siblings(t.Roots, id)
}

func siblings(seq []Node, id ID) ([]Node, int, bool) {
	for i, n := range seq {
		if n.Head().ID == id {
			return seq, i, true
		}
		if g, ok := n.(*Group); ok {
			if s, idx, ok := siblings(g.Children, id); ok {
				return s, idx, true
			}
		}
	}
	return nil, -1, false
}

// Parent returns the group that directly contains the node with the given id.
// It returns nil, true for root nodes and nil, false when id is unknown.
func (t *Tree) Parent(id ID) (*Group, bool) {
	return parent(nil, t.Roots, id)
}

func parent(owner *Group, seq []Node, id ID) (*Group, bool) {
	for _, n := range seq {
		if n.Head().ID == id {
			return owner, true
		}
		if g, ok := n.(*Group); ok {
			if p, ok := parent(g, g.Children, id); ok {
				return p, true
			}
		}
	}
	return nil, false
}

// Walk visits every node in depth-first pre-order, including nodes hidden by
// visibility. depth is 0 for roots. Returning false from fn skips the node's
// children.
func (t *Tree) Walk(fn func(n Node, depth int) bool) {
	walk(t.Roots, 0, fn)
}

func walk(seq []Node, depth int, fn func(Node, int) bool) {
	for _, n := range seq {
		if !fn(n, depth) {
			continue
		}
		if g, ok := n.(*Group); ok {
			walk(g.Children, depth+1, fn)
		}
	}
}

// Len returns the total number of nodes at all depths.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(Node, int) bool { count++; return true })
	return count
}

// IDs returns every node ID in pre-order.
func (t *Tree) IDs() []ID {
	ids := make([]ID, 0, 8)
	t.Walk(func(n Node, _ int) bool {
		ids = append(ids, n.Head().ID)
		return true
	})
	return ids
}

// Parts returns every part in pre-order, ignoring visibility.
func (t *Tree) Parts() []*Part {
	var parts []*Part
	t.Walk(func(n Node, _ int) bool {
		if p, ok := n.(*Part); ok {
			parts = append(parts, p)
		}
		return true
	})
	return parts
}
