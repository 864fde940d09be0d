package component

import (
	"errors"
	"reflect"
)

// HandlerFunc is an event listener. Returning true stops propagation:
// Dispatch visits no further ancestors, Broadcast stops the entire
// traversal. Handlers that panic are not caught; the panic propagates to
// the caller of the bus operation without corrupting registries.
type HandlerFunc func(args ...any) bool

// Registration errors surface synchronously at the call site and leave
// the registry unchanged.
var (
	// ErrInvalidEvent is returned by On for an empty event name.
	ErrInvalidEvent = errors.New("component: event name must be non-empty")

	// ErrNilHandler is returned by On for a nil handler.
	ErrNilHandler = errors.New("component: handler must be non-nil")
)

// handlerEntry pairs a handler with its identity key for deduplication
// and removal.
type handlerEntry struct {
	key uintptr
	fn  HandlerFunc
}

// handlerKey returns the identity of a handler function. Note that two
// distinct closures created from the same function literal share a code
// pointer and therefore an identity; register distinct HandlerFunc values
// if that matters.
func handlerKey(fn HandlerFunc) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// On appends fn to this node's registry for event. Registering a handler
// already present for the event (by identity) is a no-op; order of first
// registration is preserved.
func (n *Node) On(event string, fn HandlerFunc) error {
	if event == "" {
		return ErrInvalidEvent
	}
	if fn == nil {
		return ErrNilHandler
	}

	key := handlerKey(fn)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.registry == nil {
		n.registry = make(map[string][]handlerEntry)
	}
	for _, e := range n.registry[event] {
		if e.key == key {
			return nil
		}
	}
	n.registry[event] = append(n.registry[event], handlerEntry{key: key, fn: fn})
	return nil
}

// Off removes the first identity-matching handler for event. Removing a
// handler or event that was never registered (or already removed) is a
// silent no-op, so teardown paths can call Off idempotently.
func (n *Node) Off(event string, fn HandlerFunc) {
	if event == "" || fn == nil {
		return
	}

	key := handlerKey(fn)

	n.mu.Lock()
	defer n.mu.Unlock()

	entries := n.registry[event]
	for i, e := range entries {
		if e.key == key {
			n.registry[event] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// handlers returns a copy of the handlers registered for event, so
// traversal never invokes listeners while holding the node lock and an
// Off taking effect mid-iteration applies to passes that have not yet
// reached the listener.
func (n *Node) handlers(event string) []HandlerFunc {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := n.registry[event]
	if len(entries) == 0 {
		return nil
	}
	out := make([]HandlerFunc, len(entries))
	for i, e := range entries {
		out[i] = e.fn
	}
	return out
}

// invoke runs this node's handlers for event in registration order.
// Returns true as soon as a handler returns true.
func (n *Node) invoke(event string, args []any) bool {
	for _, fn := range n.handlers(event) {
		if fn(args...) {
			return true
		}
	}
	return false
}

// Dispatch propagates event upward: the node's own handlers run first,
// then each ancestor's in turn. A handler returning true stops the walk;
// no further ancestors are visited. Returns true if propagation was
// stopped.
func (n *Node) Dispatch(event string, args ...any) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.invoke(event, args) {
			return true
		}
	}
	return false
}

// Broadcast propagates event downward over the node's descendants in
// pre-order: a child's handlers run before its own children are visited.
// A handler returning true stops the entire broadcast, not just that
// branch. The origin node's own handlers do not run. Returns true if the
// broadcast was stopped.
func (n *Node) Broadcast(event string, args ...any) bool {
	for _, child := range n.Children() {
		if child.invoke(event, args) {
			return true
		}
		if child.Broadcast(event, args...) {
			return true
		}
	}
	return false
}

// Emit propagates event in both directions: a dispatch starting at the
// node's parent, then a broadcast over its descendants. The two
// directions short-circuit independently; stopping one does not stop the
// other. Returns true if either direction was stopped by a handler.
func (n *Node) Emit(event string, args ...any) bool {
	up := false
	if p := n.Parent(); p != nil {
		up = p.Dispatch(event, args...)
	}
	down := n.Broadcast(event, args...)
	return up || down
}
