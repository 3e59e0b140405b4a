// Package scene provides the part tree that kitbash composites.
//
// A [Tree] is an ordered sequence of root nodes. Each node is either a [Part],
// which wraps one decoded image, or a [Group], which owns an ordered sequence
// of further nodes. Sibling order is paint order: earlier siblings are drawn
// first (behind), later siblings on top.
//
// Every node carries a [Header] with its identity, display name, local
// [Transform] and visibility flag. Transforms compose from the root down: a
// child's local offset is scaled by everything above it before being added,
// and scales multiply. See [Transform.Compose].
//
// # Identity
//
// Node IDs are allocated by the tree that creates them ([Tree.NewPart],
// [Tree.NewGroup]) from a monotonic counter and are never reused, even after
// deletion. Selections are kept as IDs rather than pointers so a stale
// selection simply resolves to "not found" via [Tree.Find].
//
// # Concurrency
//
// A Tree is not safe for concurrent use. It is owned by a single goroutine
// that serializes mutation, flattening and compositing; see the io package
// for the decode queue that feeds it.
package scene
