package component

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrCycle is returned when attaching a node would make the tree cyclic.
var ErrCycle = errors.New("component: attach would create a cycle")

// nodeIDCounter is the source of unique node IDs.
var nodeIDCounter uint64

// Node is a component tree node. It owns its children, holds a non-owning
// back-reference to its parent, and carries a per-event listener registry
// used by the bus operations in events.go.
type Node struct {
	id   uint64
	name string

	mu       sync.Mutex
	parent   *Node
	children []*Node
	registry map[string][]handlerEntry
}

// NewNode creates a detached node. The name is a label for logging and
// wire addressing; it carries no tree semantics.
func NewNode(name string) *Node {
	return &Node{
		id:   atomic.AddUint64(&nodeIDCounter, 1),
		name: name,
	}
}

// ID returns the unique identifier for this node.
func (n *Node) ID() uint64 {
	return n.id
}

// Name returns the node's label.
func (n *Node) Name() string {
	return n.name
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.parent
}

// Children returns a copy of the node's children in insertion order.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Root returns the topmost ancestor of this node.
func (n *Node) Root() *Node {
	cur := n
	for {
		p := cur.Parent()
		if p == nil {
			return cur
		}
		cur = p
	}
}

// AppendChild attaches child to this node. A child already owned by
// another parent is detached from it first, so each node appears as a
// child of at most one parent. Attaching a node to itself or to one of
// its own descendants returns ErrCycle.
func (n *Node) AppendChild(child *Node) error {
	if child == nil {
		return errors.New("component: child must be non-nil")
	}
	if child == n {
		return ErrCycle
	}
	for a := n.Parent(); a != nil; a = a.Parent() {
		if a == child {
			return ErrCycle
		}
	}

	if p := child.Parent(); p != nil {
		p.RemoveChild(child)
	}

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()

	child.mu.Lock()
	child.parent = n
	child.mu.Unlock()

	return nil
}

// RemoveChild detaches child from this node. The child keeps its own
// subtree and listeners; removing a node that is not a child is a no-op.
func (n *Node) RemoveChild(child *Node) {
	if child == nil {
		return
	}

	n.mu.Lock()
	found := false
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			found = true
			break
		}
	}
	n.mu.Unlock()

	if found {
		child.mu.Lock()
		child.parent = nil
		child.mu.Unlock()
	}
}

// Unmount detaches the node from its parent and discards the listeners
// and tree edges of the whole subtree. An unmounted node can be reused as
// a fresh detached node, but its former descendants are gone.
func (n *Node) Unmount() {
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
	n.discard()
}

// discard drops listeners and edges recursively, children first.
func (n *Node) discard() {
	n.mu.Lock()
	children := n.children
	n.children = nil
	n.registry = nil
	n.mu.Unlock()

	for _, c := range children {
		c.mu.Lock()
		c.parent = nil
		c.mu.Unlock()
		c.discard()
	}
}
