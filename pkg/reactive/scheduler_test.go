package reactive

import (
	"errors"
	"testing"
)

func TestFlushDeduplicates(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"count": 0}).(*Map)

	runs := 0
	NewWatcher(sched, func() any {
		return m.Get("count")
	}, func(prev, next any) {
		runs++
	})

	// N rapid writes collapse to one invocation per watcher per cycle
	m.Set("count", 1)
	m.Set("count", 2)
	m.Set("count", 3)

	if sched.Pending() != 1 {
		t.Fatalf("expected 1 pending watcher, got %d", sched.Pending())
	}

	sched.Flush()
	if runs != 1 {
		t.Errorf("expected exactly 1 run, got %d", runs)
	}
	if sched.Pending() != 0 {
		t.Errorf("queue should be empty after flush, got %d", sched.Pending())
	}
}

func TestFlushOrder(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"a": 0, "b": 0}).(*Map)

	var order []string
	NewWatcher(sched, func() any { return m.Get("a") }, func(prev, next any) {
		order = append(order, "first")
	})
	NewWatcher(sched, func() any { return m.Get("b") }, func(prev, next any) {
		order = append(order, "second")
	})

	m.Set("b", 1) // enqueues second watcher first
	m.Set("a", 1)

	sched.Flush()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("watchers should run in first-enqueued order, got %v", order)
	}
}

func TestCascadeDefersToNextCycle(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"a": 0, "b": 0}).(*Map)

	bRuns := 0
	NewWatcher(sched, func() any { return m.Get("a") }, func(prev, next any) {
		m.Set("b", next)
	})
	NewWatcher(sched, func() any { return m.Get("b") }, func(prev, next any) {
		bRuns++
	})

	m.Set("a", 1)
	sched.Flush()

	// The cascaded watcher runs in the next cycle, not inline
	if bRuns != 0 {
		t.Fatalf("cascaded watcher ran inline, runs=%d", bRuns)
	}
	if sched.Pending() != 1 {
		t.Fatalf("cascaded watcher should be queued, got %d pending", sched.Pending())
	}

	sched.Flush()
	if bRuns != 1 {
		t.Errorf("expected cascaded watcher to run in second cycle, got %d", bRuns)
	}
}

func TestSettleCountsCycles(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"a": 0, "b": 0}).(*Map)

	NewWatcher(sched, func() any { return m.Get("a") }, func(prev, next any) {
		m.Set("b", next)
	})
	NewWatcher(sched, func() any { return m.Get("b") }, nil)

	m.Set("a", 1)

	cycles, err := sched.Settle()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cycles != 2 {
		t.Errorf("expected 2 cycles to settle, got %d", cycles)
	}
}

func TestSettleUpdateStorm(t *testing.T) {
	sched := NewScheduler(WithMaxCycles(5))
	m := Observe(map[string]any{"n": 0}).(*Map)

	// Reaction writes the property its own getter reads
	NewWatcher(sched, func() any { return m.Get("n") }, func(prev, next any) {
		m.Set("n", next.(int)+1)
	})

	m.Set("n", 1)

	cycles, err := sched.Settle()
	if !errors.Is(err, ErrUpdateStorm) {
		t.Fatalf("expected ErrUpdateStorm, got %v", err)
	}
	if cycles != 5 {
		t.Errorf("expected budget of 5 cycles, got %d", cycles)
	}
}

func TestBatchSettlesOnce(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"first": "", "last": ""}).(*Map)

	runs := 0
	NewWatcher(sched, func() any {
		return m.Get("first").(string) + " " + m.Get("last").(string)
	}, func(prev, next any) {
		runs++
	})

	err := sched.Batch(func() {
		m.Set("first", "John")
		m.Set("last", "Doe")

		if runs != 0 {
			t.Error("reactions must not run inside the batch")
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if runs != 1 {
		t.Errorf("expected exactly 1 run after batch, got %d", runs)
	}
}

func TestBatchPanicSkipsSettle(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"count": 0}).(*Map)

	runs := 0
	NewWatcher(sched, func() any { return m.Get("count") }, func(prev, next any) {
		runs++
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate out of Batch")
			}
		}()
		sched.Batch(func() {
			m.Set("count", 1)
			panic("batch failure")
		})
	}()

	// Reactions must not run during panic unwind; the write stays queued
	if runs != 0 {
		t.Fatalf("reactions ran while unwinding, got %d", runs)
	}
	if sched.Pending() != 1 {
		t.Fatalf("expected queued watcher to survive, got %d pending", sched.Pending())
	}

	// Batch depth was restored, so a later batch settles normally
	if err := sched.Batch(func() { m.Set("count", 2) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs != 1 {
		t.Errorf("expected 1 run after the recovery batch, got %d", runs)
	}
}

func TestDeferHookSchedulesOneFlush(t *testing.T) {
	var scheduled []func()
	sched := NewScheduler(WithDeferHook(func(flush func()) {
		scheduled = append(scheduled, flush)
	}))
	m := Observe(map[string]any{"count": 0}).(*Map)

	runs := 0
	NewWatcher(sched, func() any { return m.Get("count") }, func(prev, next any) {
		runs++
	})

	m.Set("count", 1)
	m.Set("count", 2)

	// Enqueuing while a flush is already pending must not schedule again
	if len(scheduled) != 1 {
		t.Fatalf("expected exactly 1 scheduled flush, got %d", len(scheduled))
	}

	scheduled[0]()
	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}

	// Next turn schedules a fresh flush
	m.Set("count", 3)
	if len(scheduled) != 2 {
		t.Errorf("expected a new scheduled flush, got %d", len(scheduled))
	}
}

func TestFlushPanicKeepsQueueIntact(t *testing.T) {
	sched := NewScheduler()
	m := Observe(map[string]any{"a": 0}).(*Map)

	secondRuns := 0
	NewWatcher(sched, func() any { return m.Get("a") }, func(prev, next any) {
		panic("listener failure")
	})
	NewWatcher(sched, func() any { return m.Get("a") }, func(prev, next any) {
		secondRuns++
	})

	m.Set("a", 1)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate to the flush caller")
			}
		}()
		sched.Flush()
	}()

	// The unrun remainder is carried into the next cycle
	if sched.Pending() != 1 {
		t.Fatalf("expected 1 re-queued watcher, got %d", sched.Pending())
	}

	sched.Flush()
	if secondRuns != 1 {
		t.Errorf("re-queued watcher should run in next cycle, got %d", secondRuns)
	}
}
