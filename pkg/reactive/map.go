package reactive

import "sync"

// Map is a reactive view of a string-keyed object. Every key has its own
// lazily-created dependency registry; the map's shape (key set) has one
// more, which Len, Keys and Snapshot read and which structural writes
// (new key, delete) notify.
//
// Keys added after conversion are fully intercepted because the wrapper
// owns all access paths; a watcher that read a then-missing key is
// registered against that key and fires when the key appears.
type Map struct {
	mu      sync.RWMutex
	entries map[string]any
	keyDeps map[string]*dep
	shape   dep
}

// newMap converts src into a reactive map, recursively converting nested
// structured values. The source map is not retained.
func newMap(src map[string]any) *Map {
	entries := make(map[string]any, len(src))
	for k, v := range src {
		entries[k] = Observe(v)
	}
	return &Map{
		entries: entries,
		keyDeps: make(map[string]*dep),
	}
}

// Get returns the value stored under key, or nil if absent. Reading while
// a watcher is active registers it against the key's registry.
func (m *Map) Get(key string) any {
	m.mu.RLock()
	v := m.entries[key]
	m.mu.RUnlock()

	if currentListener() != nil {
		m.depForKey(key).depend()
	}
	return v
}

// Has reports whether key is present, registering the active watcher
// against the key's registry.
func (m *Map) Has(key string) bool {
	m.mu.RLock()
	_, ok := m.entries[key]
	m.mu.RUnlock()

	if currentListener() != nil {
		m.depForKey(key).depend()
	}
	return ok
}

// Set stores value under key. Structured values are made reactive before
// storage. Writing a value equal to the current one is a no-op and does
// not enqueue dependents. Adding a previously-absent key additionally
// notifies shape dependents.
func (m *Map) Set(key string, value any) {
	value = Observe(value)

	m.mu.Lock()
	old, existed := m.entries[key]
	if existed && sameValue(old, value) {
		m.mu.Unlock()
		return
	}
	m.entries[key] = value
	d := m.keyDeps[key]
	m.mu.Unlock()

	if d != nil {
		d.notify()
	}
	if !existed {
		m.shape.notify()
	}
}

// Delete removes key from the map. Removing an absent key is a no-op.
func (m *Map) Delete(key string) {
	m.mu.Lock()
	_, existed := m.entries[key]
	if !existed {
		m.mu.Unlock()
		return
	}
	delete(m.entries, key)
	d := m.keyDeps[key]
	m.mu.Unlock()

	if d != nil {
		d.notify()
	}
	m.shape.notify()
}

// Len returns the number of keys, registering the active watcher against
// the map's shape.
func (m *Map) Len() int {
	m.shape.depend()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Keys returns the current key set, registering the active watcher
// against the map's shape. Order is unspecified.
func (m *Map) Keys() []string {
	m.shape.depend()

	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a plain (non-reactive) copy of the map one level deep,
// registering the active watcher against the shape and every key.
func (m *Map) Snapshot() map[string]any {
	keys := m.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = m.Get(k)
	}
	return out
}

// depForKey returns the dependency registry for key, creating it lazily.
// Registries are created on first tracked read and never removed; a
// registry may outlive its key so appearance of the key re-notifies.
func (m *Map) depForKey(key string) *dep {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.keyDeps[key]
	if d == nil {
		d = &dep{}
		m.keyDeps[key] = d
	}
	return d
}
