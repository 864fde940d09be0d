package reactive

import "errors"

// ErrUpdateStorm is returned by Settle (and surfaced by Batch) when
// cascading watcher reactions keep enqueuing work past the scheduler's
// cycle budget. This usually means a reaction writes a property its own
// getter reads.
//
// Applications should handle this by:
//   - Logging the event for debugging
//   - Breaking the write-read cycle, or reading with Untracked
//   - Raising the budget via WithMaxCycles if deep cascades are intended
var ErrUpdateStorm = errors.New("reactive: update storm, flush cycle budget exceeded")
