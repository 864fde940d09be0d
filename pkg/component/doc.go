// Package component implements Ripple's component node tree and the
// hierarchical event bus layered on it.
//
// Nodes form an acyclic tree with single ownership: a parent owns its
// children, and each child holds a non-owning back-reference to its
// parent. Every node carries an optional per-event listener registry; no
// global registry exists. Each bus operation is scoped to a node and its
// position in the tree.
//
// Three propagation directions are provided:
//
//   - Dispatch walks upward from a node through its ancestors.
//   - Broadcast walks downward over a node's descendants in pre-order.
//   - Emit combines both, each direction independently short-circuited.
//
// In every direction a handler that returns true stops propagation.
package component
