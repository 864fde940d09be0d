package reactive

import "testing"

func TestWatcherInitialRun(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"count": 7}).(*Map)

	runs := 0
	w := NewWatcher(sched, func() any {
		return m.Get("count")
	}, func(prev, next any) {
		runs++
	})

	if w.Value() != 7 {
		t.Errorf("expected initial value 7, got %v", w.Value())
	}
	if runs != 0 {
		t.Errorf("reaction should not run for the initial evaluation, got %d runs", runs)
	}
}

func TestWatcherDeferredInvocation(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"count": 0}).(*Map)

	var got []any
	NewWatcher(sched, func() any {
		return m.Get("count")
	}, func(prev, next any) {
		got = append(got, prev, next)
	})

	m.Set("count", 1)

	// Writes never invoke the reaction synchronously
	if len(got) != 0 {
		t.Fatalf("reaction ran synchronously on write: %v", got)
	}

	sched.Flush()

	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("expected reaction with (0, 1), got %v", got)
	}
}

func TestWatcherTrackingReset(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"useA": true, "a": "a0", "b": "b0"}).(*Map)

	runs := 0
	NewWatcher(sched, func() any {
		if m.Get("useA").(bool) {
			return m.Get("a")
		}
		return m.Get("b")
	}, func(prev, next any) {
		runs++
	})

	// Branch A active: writes to b must not trigger
	m.Set("b", "b1")
	if sched.Pending() != 0 {
		t.Fatal("write to unread property should not enqueue the watcher")
	}

	// Switch branches
	m.Set("useA", false)
	sched.Flush()
	if runs != 1 {
		t.Fatalf("expected 1 run after branch switch, got %d", runs)
	}

	// Now b is read and a is not: a must no longer trigger
	m.Set("a", "a1")
	if sched.Pending() != 0 {
		t.Error("write to abandoned branch should not enqueue the watcher")
	}

	m.Set("b", "b2")
	sched.Flush()
	if runs != 2 {
		t.Errorf("expected 2 runs after write to active branch, got %d", runs)
	}
}

func TestWatcherNestedCreation(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"outer": 0, "inner": 0}).(*Map)

	outerRuns := 0
	first := true
	NewWatcher(sched, func() any {
		if first {
			first = false
			// Creating a watcher inside another watcher's getter must not
			// corrupt the outer watcher's tracking
			NewWatcher(sched, func() any {
				return m.Get("inner")
			}, nil)
		}
		return m.Get("outer")
	}, func(prev, next any) {
		outerRuns++
	})

	m.Set("outer", 1)
	sched.Flush()

	if outerRuns != 1 {
		t.Errorf("outer watcher should keep its registrations, got %d runs", outerRuns)
	}
}

func TestWatcherSurvivesGetterPanic(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"n": 0}).(*Map)

	explode := false
	runs := 0
	w := NewWatcher(sched, func() any {
		v := m.Get("n")
		if explode {
			panic("getter failure")
		}
		return v
	}, func(prev, next any) {
		runs++
	})

	explode = true
	m.Set("n", 1)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("getter panic should propagate to the flush caller")
			}
		}()
		sched.Flush()
	}()

	// Value stays readable and keeps the last good result
	if w.Value() != 0 {
		t.Errorf("expected last good value 0, got %v", w.Value())
	}

	// The watcher re-queued itself so the next cycle rebuilds its
	// dependency set
	if sched.Pending() != 1 {
		t.Fatalf("expected the watcher to be re-queued, got %d pending", sched.Pending())
	}

	explode = false
	sched.Flush()

	if runs != 1 {
		t.Fatalf("expected a recovery run, got %d", runs)
	}
	if w.Value() != 1 {
		t.Errorf("expected value 1 after recovery run, got %v", w.Value())
	}

	// Subscriptions are re-established
	m.Set("n", 2)
	sched.Flush()
	if runs != 2 || w.Value() != 2 {
		t.Errorf("watcher should track again after recovery, runs=%d value=%v", runs, w.Value())
	}
}

func TestWatcherDispose(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"count": 0}).(*Map)

	runs := 0
	w := NewWatcher(sched, func() any {
		return m.Get("count")
	}, func(prev, next any) {
		runs++
	})

	w.Dispose()
	if !w.IsDisposed() {
		t.Error("watcher should report disposed")
	}

	m.Set("count", 1)
	sched.Flush()

	if runs != 0 {
		t.Errorf("disposed watcher should not run, got %d runs", runs)
	}

	// Idempotent
	w.Dispose()
}
