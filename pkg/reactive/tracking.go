package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive tracking state for a goroutine.
// The active listener is kept as an explicit stack: each getter execution
// pushes its watcher and pops it on exit, so nested and reentrant tracking
// cannot corrupt each other.
type trackingContext struct {
	// stack holds the listeners currently tracking dependencies, innermost
	// last. A nil entry (pushed by Untracked) suspends tracking without
	// losing the outer frames.
	stack []Listener
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine.
// This uses the runtime stack to extract the goroutine ID.
// Note: This is an implementation detail and should not be relied upon externally.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating one if needed.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// currentListener returns the innermost active listener, or nil if no
// tracking is active (empty stack or an Untracked frame on top).
func currentListener() Listener {
	ctx := getTrackingContext()
	if len(ctx.stack) == 0 {
		return nil
	}
	return ctx.stack[len(ctx.stack)-1]
}

// pushListener makes l the active listener for dependency tracking.
func pushListener(l Listener) {
	ctx := getTrackingContext()
	ctx.stack = append(ctx.stack, l)
}

// popListener restores the previously active listener.
func popListener() {
	ctx := getTrackingContext()
	if len(ctx.stack) == 0 {
		return
	}
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
}

// WithListener runs fn with l as the active listener. Reads of reactive
// values inside fn register l in their dependency registries.
func WithListener(l Listener, fn func()) {
	pushListener(l)
	defer popListener()
	fn()
}

// Untracked runs fn without tracking reads as dependencies. The outer
// listener, if any, is restored when fn returns.
//
// Example:
//
//	Untracked(func() {
//	    // Reading state here won't subscribe the current watcher
//	    value := state.Get("count")
//	    fmt.Println("Current value:", value)
//	})
func Untracked(fn func()) {
	pushListener(nil)
	defer popListener()
	fn()
}
