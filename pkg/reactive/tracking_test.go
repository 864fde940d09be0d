package reactive

import (
	"sync"
	"testing"
)

// testListener is a simple Listener implementation for testing.
type testListener struct {
	id         uint64
	dirtyCount int
	mu         sync.Mutex
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirtyCount++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirtyCount
}

func TestGetTrackingContext(t *testing.T) {
	// Getting context should return the same context for same goroutine
	ctx1 := getTrackingContext()
	ctx2 := getTrackingContext()

	if ctx1 != ctx2 {
		t.Error("getTrackingContext should return same context for same goroutine")
	}
}

func TestCurrentListenerEmptyStack(t *testing.T) {
	if l := currentListener(); l != nil {
		t.Errorf("expected nil listener with empty stack, got %v", l)
	}
}

func TestWithListenerStackDiscipline(t *testing.T) {
	outer := newTestListener()
	inner := newTestListener()

	WithListener(outer, func() {
		if currentListener() != outer {
			t.Error("outer listener should be active")
		}

		WithListener(inner, func() {
			if currentListener() != inner {
				t.Error("inner listener should be active inside nested frame")
			}
		})

		// Outer must be restored after the inner frame pops
		if currentListener() != outer {
			t.Error("outer listener should be restored after nested frame")
		}
	})

	if currentListener() != nil {
		t.Error("no listener should be active after all frames popped")
	}
}

func TestUntrackedSuspendsTracking(t *testing.T) {
	m := newMap(map[string]any{"x": 1})
	listener := newTestListener()

	WithListener(listener, func() {
		Untracked(func() {
			if currentListener() != nil {
				t.Error("Untracked should suspend the active listener")
			}
			_ = m.Get("x")
		})

		if currentListener() != listener {
			t.Error("listener should be restored after Untracked")
		}
	})

	m.Set("x", 2)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Untracked read should not subscribe, got %d notifications", listener.getDirtyCount())
	}
}

func TestTrackingContextIsolation(t *testing.T) {
	// Each goroutine should have its own context
	var wg sync.WaitGroup
	contexts := make(chan *trackingContext, 2)

	wg.Add(2)

	go func() {
		defer wg.Done()
		contexts <- getTrackingContext()
	}()

	go func() {
		defer wg.Done()
		contexts <- getTrackingContext()
	}()

	wg.Wait()
	close(contexts)

	var seen []*trackingContext
	for ctx := range contexts {
		seen = append(seen, ctx)
	}

	if len(seen) == 2 && seen[0] == seen[1] {
		t.Error("goroutines should not share a tracking context")
	}
}
