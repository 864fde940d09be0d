package reactive

// Listener is anything that can be notified when a dependency changes.
// Watcher is the primary implementation; tests and embedding layers may
// provide their own.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has
	// changed. For watchers, this schedules the watcher for the next flush.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication in dependency registries and the scheduler.
	ID() uint64
}
