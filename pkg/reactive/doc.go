// Package reactive implements Ripple's dependency-tracking engine and
// batched update scheduler.
//
// The package is built around three primitives:
//
//   - Observe converts a plain structured value (map[string]any or []any)
//     into a reactive Map or List whose reads and writes are intercepted.
//     Reading a property while a watcher is active registers that watcher
//     against the property's dependency registry; writing a property hands
//     every registered watcher to the scheduler.
//
//   - Watcher is a unit of reactive computation: a getter plus a reaction
//     callback. The getter runs once at creation to establish the initial
//     dependency set, and re-runs on each invalidation. Before every
//     re-run the watcher's previous registrations are cleared, so it stays
//     subscribed only to properties it actually read this time.
//
//   - Scheduler collects invalidated watchers, deduplicates them by ID,
//     and flushes them in a single deferred pass. Writes never invoke a
//     reaction synchronously. Cascading invalidations raised during a
//     flush are deferred to the next cycle.
//
// Go has no implicit microtask queue, so the flush point is explicit: the
// host either installs a defer hook (WithDeferHook) or calls Flush/Settle
// at the end of each logical turn. The server package settles after every
// inbound frame.
package reactive
