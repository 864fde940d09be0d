package reactive

import (
	"sync"
	"sync/atomic"
)

// Watcher is a reactive computation with a stable identity: a getter that
// produces a value by reading reactive properties, and a reaction callback
// invoked after each re-run triggered by invalidation.
//
// The getter runs once at creation to establish the initial dependency
// set. When any dependency changes, the watcher is handed to its scheduler
// and re-run during the next flush: previous registrations are cleared,
// the getter re-executes under tracking, and the reaction receives the
// previous and new values.
type Watcher struct {
	id uint64

	// getter produces the watched value and establishes dependencies.
	getter func() any

	// onUpdate is the reaction callback, invoked after each re-run.
	// May be nil for watchers used only to maintain a dependency set.
	onUpdate func(prev, next any)

	// value is the result of the most recent getter run.
	value   any
	valueMu sync.RWMutex

	// deps are the registries this watcher is currently subscribed to.
	deps   []*dep
	depsMu sync.Mutex

	// sched receives this watcher when it is invalidated.
	sched *Scheduler

	// pending indicates the watcher is queued for the next flush.
	pending atomic.Bool

	// disposed indicates the watcher has been torn down.
	disposed atomic.Bool
}

// NewWatcher creates a watcher, immediately runs its getter once to
// establish the initial dependency set, and returns the handle. The
// reaction is not invoked for the initial run.
func NewWatcher(sched *Scheduler, getter func() any, onUpdate func(prev, next any)) *Watcher {
	w := &Watcher{
		id:       nextID(),
		getter:   getter,
		onUpdate: onUpdate,
		sched:    sched,
	}

	// Not yet shared, no lock needed.
	w.value = w.track()

	return w
}

// ID returns the unique identifier for this watcher.
// Implements the Listener interface.
func (w *Watcher) ID() uint64 {
	return w.id
}

// MarkDirty schedules the watcher for the next flush.
// Implements the Listener interface. Uses CAS so a watcher already queued
// in the current cycle is not queued twice.
func (w *Watcher) MarkDirty() {
	if w.disposed.Load() {
		return
	}

	if w.pending.CompareAndSwap(false, true) {
		w.sched.enqueue(w)
	}
}

// Value returns the result of the most recent getter run.
func (w *Watcher) Value() any {
	w.valueMu.RLock()
	defer w.valueMu.RUnlock()
	return w.value
}

// run re-executes the getter and invokes the reaction.
// Called by the scheduler during a flush.
//
// track clears the dependency set before evaluating, so a getter that
// panics mid-read leaves the watcher subscribed to only part of its
// dependencies. To keep such a watcher alive, a panicking getter re-queues
// the watcher before the panic propagates: the next cycle re-runs it and
// re-establishes the full set. The value lock is held only for the swap,
// never across user code.
func (w *Watcher) run() {
	if w.disposed.Load() {
		return
	}

	w.pending.Store(false)

	evaluated := false
	defer func() {
		if !evaluated {
			w.MarkDirty()
		}
	}()

	next := w.track()
	evaluated = true

	w.valueMu.Lock()
	prev := w.value
	w.value = next
	w.valueMu.Unlock()

	if w.onUpdate != nil {
		w.onUpdate(prev, next)
	}
}

// track clears the previous dependency set and evaluates the getter with
// this watcher active, so it ends up subscribed only to the properties the
// getter read this run. Removed branches stop triggering the watcher.
func (w *Watcher) track() any {
	w.clearDeps()

	pushListener(w)
	defer popListener()

	return w.getter()
}

// addDep records a registry this watcher subscribed to.
// Called by registries when this watcher reads a property.
func (w *Watcher) addDep(d *dep) {
	w.depsMu.Lock()
	defer w.depsMu.Unlock()

	for _, existing := range w.deps {
		if existing == d {
			return
		}
	}
	w.deps = append(w.deps, d)
}

// clearDeps unsubscribes the watcher from every registry it is in.
func (w *Watcher) clearDeps() {
	w.depsMu.Lock()
	defer w.depsMu.Unlock()

	for _, d := range w.deps {
		d.unsubscribe(w)
	}
	w.deps = w.deps[:0]
}

// Dispose tears the watcher down: it unsubscribes from all registries and
// ignores further invalidations. Safe to call more than once.
func (w *Watcher) Dispose() {
	if w.disposed.Swap(true) {
		return
	}
	w.clearDeps()
}

// IsDisposed returns true if the watcher has been disposed.
func (w *Watcher) IsDisposed() bool {
	return w.disposed.Load()
}
