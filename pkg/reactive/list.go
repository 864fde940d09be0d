package reactive

import "sync"

// List is a reactive view of an ordered sequence. The sequence carries a
// single dependency registry: any index-aware mutation (append, insert,
// removal, reorder) or element assignment notifies every watcher that read
// the list, whether through an index, Len, or Values.
type List struct {
	mu    sync.RWMutex
	items []any
	seq   dep
}

// newList converts src into a reactive list, recursively converting
// nested structured values. The source slice is not retained.
func newList(src []any) *List {
	items := make([]any, len(src))
	for i, v := range src {
		items[i] = Observe(v)
	}
	return &List{items: items}
}

// Get returns the element at index i, or nil if out of range. Reading
// registers the active watcher against the sequence.
func (l *List) Get(i int) any {
	l.seq.depend()

	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// Len returns the number of elements, registering the active watcher
// against the sequence.
func (l *List) Len() int {
	l.seq.depend()

	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Values returns a plain copy of the sequence, registering the active
// watcher against it.
func (l *List) Values() []any {
	l.seq.depend()

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// SetAt assigns value at index i. Out-of-range indices are a no-op, as is
// assigning a value equal to the current element.
func (l *List) SetAt(i int, value any) {
	value = Observe(value)

	l.mu.Lock()
	if i < 0 || i >= len(l.items) {
		l.mu.Unlock()
		return
	}
	if sameValue(l.items[i], value) {
		l.mu.Unlock()
		return
	}
	l.items[i] = value
	l.mu.Unlock()

	l.seq.notify()
}

// Append adds items to the end of the sequence.
func (l *List) Append(items ...any) {
	if len(items) == 0 {
		return
	}

	l.mu.Lock()
	for _, v := range items {
		l.items = append(l.items, Observe(v))
	}
	l.mu.Unlock()

	l.seq.notify()
}

// InsertAt inserts value at index i. Indices past either end are clamped.
func (l *List) InsertAt(i int, value any) {
	value = Observe(value)

	l.mu.Lock()
	if i < 0 {
		i = 0
	}
	if i >= len(l.items) {
		l.items = append(l.items, value)
	} else {
		l.items = append(l.items[:i], append([]any{value}, l.items[i:]...)...)
	}
	l.mu.Unlock()

	l.seq.notify()
}

// RemoveAt removes the element at index i. Out-of-range indices are a
// no-op.
func (l *List) RemoveAt(i int) {
	l.mu.Lock()
	if i < 0 || i >= len(l.items) {
		l.mu.Unlock()
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.mu.Unlock()

	l.seq.notify()
}

// Swap exchanges the elements at indices i and j. Out-of-range indices or
// i == j are a no-op.
func (l *List) Swap(i, j int) {
	l.mu.Lock()
	if i == j || i < 0 || j < 0 || i >= len(l.items) || j >= len(l.items) {
		l.mu.Unlock()
		return
	}
	l.items[i], l.items[j] = l.items[j], l.items[i]
	l.mu.Unlock()

	l.seq.notify()
}
