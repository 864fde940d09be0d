package reactive

import "sync"

// dep is a dependency registry: the set of listeners currently depending
// on one property. Registries are created lazily on first tracked read and
// never removed; watchers prune their own registrations before each re-run.
type dep struct {
	mu   sync.RWMutex
	subs []Listener
}

// depend registers the currently-active listener, if any.
// Reads outside any active watcher perform no registration.
func (d *dep) depend() {
	l := currentListener()
	if l == nil {
		return
	}

	d.subscribe(l)

	// Watchers track their registries so they can reset them on re-run.
	if w, ok := l.(*Watcher); ok {
		w.addDep(d)
	}
}

// subscribe adds a listener to this registry.
// Deduplicates by listener ID to prevent double-subscription.
func (d *dep) subscribe(l Listener) {
	if l == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	lid := l.ID()
	for _, existing := range d.subs {
		if existing.ID() == lid {
			return
		}
	}

	d.subs = append(d.subs, l)
}

// unsubscribe removes a listener from this registry.
func (d *dep) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	lid := l.ID()
	for i, existing := range d.subs {
		if existing.ID() == lid {
			// Remove by swapping with last element (order doesn't matter)
			d.subs[i] = d.subs[len(d.subs)-1]
			d.subs = d.subs[:len(d.subs)-1]
			return
		}
	}
}

// notify marks every registered listener dirty. Watchers respond by
// enqueuing themselves with their scheduler; reactions never run here.
// Uses copy-before-notify to avoid holding the lock during notification.
func (d *dep) notify() {
	d.mu.RLock()
	subs := make([]Listener, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	for _, sub := range subs {
		sub.MarkDirty()
	}
}
