package reactive

import "sync"

// defaultMaxCycles bounds how many flush cycles Settle will run before
// giving up on a cascade that never quiesces.
const defaultMaxCycles = 100

// Scheduler collects invalidated watchers, deduplicates them, and flushes
// them in a single deferred pass. Enqueuing never runs a reaction
// synchronously: reactions run when the host flushes, either through an
// installed defer hook or an explicit Flush/Settle call at the end of a
// logical turn.
type Scheduler struct {
	mu sync.Mutex

	// queue holds pending watchers in first-enqueued order.
	queue []*Watcher

	// queued tracks IDs already in the current cycle's queue.
	queued map[uint64]struct{}

	// flushPending is true while a flush is scheduled but not yet taken.
	// At most one flush is scheduled at a time.
	flushPending bool

	// batchDepth tracks nested Batch calls. While > 0, the defer hook is
	// suppressed; the outermost Batch settles on exit.
	batchDepth int

	// deferFn, when set, arranges for the given flush to run once the
	// current synchronous turn completes.
	deferFn func(flush func())

	maxCycles int
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithDeferHook installs a deferred-flush primitive: fn is called with a
// flush function whenever a flush becomes pending, and must arrange for it
// to run after the current synchronous turn. Hosts without such a
// primitive leave this unset and call Flush or Settle explicitly.
func WithDeferHook(fn func(flush func())) SchedulerOption {
	return func(s *Scheduler) {
		s.deferFn = fn
	}
}

// WithMaxCycles sets the flush-cycle budget used by Settle and Batch.
func WithMaxCycles(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxCycles = n
		}
	}
}

// NewScheduler creates an idle scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		queued:    make(map[uint64]struct{}),
		maxCycles: defaultMaxCycles,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// enqueue adds a watcher to the pending queue if it is not already queued
// in the current cycle, and schedules a flush if none is pending.
// Called by Watcher.MarkDirty.
func (s *Scheduler) enqueue(w *Watcher) {
	s.mu.Lock()

	if _, ok := s.queued[w.id]; ok {
		s.mu.Unlock()
		return
	}
	s.queued[w.id] = struct{}{}
	s.queue = append(s.queue, w)

	schedule := false
	if !s.flushPending {
		s.flushPending = true
		schedule = s.deferFn != nil && s.batchDepth == 0
	}
	s.mu.Unlock()

	if schedule {
		s.deferFn(func() { s.Flush() })
	}
}

// Pending returns the number of watchers queued for the next flush.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Flush runs one cycle: it takes a snapshot of the pending queue, clears
// it, and runs each distinct watcher exactly once in first-enqueued order.
// Watchers enqueued while the cycle runs (cascading updates) are deferred
// to the next cycle, never executed inline.
//
// A panicking reaction aborts the remainder of the pass and propagates,
// but the unrun remainder of the snapshot is re-queued so the next cycle
// is not corrupted.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	clear(s.queued)
	s.flushPending = false
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	idx := 0
	defer func() {
		if r := recover(); r != nil {
			for _, w := range batch[idx+1:] {
				s.enqueue(w)
			}
			panic(r)
		}
	}()

	for ; idx < len(batch); idx++ {
		batch[idx].run()
	}
}

// Settle runs flush cycles until the queue is empty, returning the number
// of cycles taken. If cascading updates keep the queue non-empty past the
// cycle budget, Settle stops and returns ErrUpdateStorm; the queue is left
// intact for diagnosis.
func (s *Scheduler) Settle() (int, error) {
	cycles := 0
	for {
		s.mu.Lock()
		n := len(s.queue)
		s.mu.Unlock()

		if n == 0 {
			return cycles, nil
		}
		if cycles >= s.maxCycles {
			return cycles, ErrUpdateStorm
		}

		s.Flush()
		cycles++
	}
}

// Batch groups multiple writes into a single notification phase. Writes
// inside fn enqueue their dependents as usual; when the outermost Batch
// returns, the scheduler settles once. Batches can be nested.
//
// Example:
//
//	sched.Batch(func() {
//	    state.Set("first", "John")
//	    state.Set("last", "Doe")
//	})
//	// Each dependent watcher ran exactly once
// A panicking fn propagates without settling: reactions must not run
// during panic unwind. The batch depth is restored either way, and the
// enqueued watchers stay queued for the next flush.
func (s *Scheduler) Batch(fn func()) (err error) {
	s.mu.Lock()
	s.batchDepth++
	s.mu.Unlock()

	completed := false
	defer func() {
		s.mu.Lock()
		s.batchDepth--
		outermost := s.batchDepth == 0
		s.mu.Unlock()

		if outermost && completed {
			_, err = s.Settle()
		}
	}()

	fn()
	completed = true
	return nil
}
