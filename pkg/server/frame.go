package server

// Frame is an inbound client message.
type Frame struct {
	// Type is one of "event", "set", or "ping".
	Type string `json:"type"`

	// Node names the target component node for "event" frames.
	// Empty means the session root.
	Node string `json:"node,omitempty"`

	// Event is the bus event name for "event" frames.
	Event string `json:"event,omitempty"`

	// Mode selects the propagation direction for "event" frames:
	// "emit" (default), "dispatch", or "broadcast".
	Mode string `json:"mode,omitempty"`

	// Args are the listener arguments for "event" frames.
	Args []any `json:"args,omitempty"`

	// Key is the state property for "set" frames.
	Key string `json:"key,omitempty"`

	// Value is the new state value for "set" frames.
	Value any `json:"value,omitempty"`
}

// OutFrame is an outbound server message.
type OutFrame struct {
	// Type is one of "patch", "pong", "ping", or "error".
	Type string `json:"type"`

	// Binding names the re-rendered binding for "patch" frames.
	Binding string `json:"binding,omitempty"`

	// Value carries the binding's new value for "patch" frames.
	Value any `json:"value,omitempty"`

	// Seq is a monotonically increasing frame sequence number.
	Seq uint64 `json:"seq,omitempty"`

	// Message describes the failure for "error" frames.
	Message string `json:"message,omitempty"`
}

// Frame type constants.
const (
	frameEvent = "event"
	frameSet   = "set"
	framePing  = "ping"

	framePatch = "patch"
	framePong  = "pong"
	frameError = "error"
)

// Propagation modes for event frames.
const (
	modeEmit      = "emit"
	modeDispatch  = "dispatch"
	modeBroadcast = "broadcast"
)
