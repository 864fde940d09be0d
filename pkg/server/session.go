package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ripplekit/ripple/pkg/component"
	"github.com/ripplekit/ripple/pkg/reactive"
)

// Session is one live client connection. It owns a scheduler, a reactive
// state map, and a component node tree, and processes every inbound frame
// on a single event-loop goroutine.
type Session struct {
	id     string
	config *SessionConfig
	logger *slog.Logger

	sched *reactive.Scheduler
	state *reactive.Map
	root  *component.Node

	// nodes maps wire names to tree nodes for event frame addressing.
	nodes   map[string]*component.Node
	nodesMu sync.RWMutex

	watchers   []*reactive.Watcher
	watchersMu sync.Mutex

	conn   *websocket.Conn
	connMu sync.Mutex

	// sender writes an outbound frame. Defaults to the WebSocket writer;
	// tests inject a capture function.
	sender func(OutFrame) error

	frames  chan Frame
	done    chan struct{}
	closed  atomic.Bool
	sendSeq atomic.Uint64

	// onClose is invoked once when the session closes.
	onClose func(*Session)
}

// newSession creates a session for conn. conn may be nil for sessions
// driven directly through handleFrame (tests, embedding).
func newSession(conn *websocket.Conn, config *SessionConfig, logger *slog.Logger) *Session {
	if config == nil {
		config = DefaultSessionConfig()
	}

	id := uuid.NewString()
	s := &Session{
		id:     id,
		config: config,
		logger: logger.With("session_id", id),
		sched:  reactive.NewScheduler(reactive.WithMaxCycles(config.FlushBudget)),
		state:  reactive.Observe(map[string]any{}).(*reactive.Map),
		root:   component.NewNode("root"),
		nodes:  make(map[string]*component.Node),
		conn:   conn,
		frames: make(chan Frame, config.MaxFrameQueue),
		done:   make(chan struct{}),
	}
	s.sender = s.writeFrame
	s.nodes["root"] = s.root
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the session's reactive state map.
func (s *Session) State() *reactive.Map {
	return s.state
}

// Root returns the root of the session's component tree.
func (s *Session) Root() *component.Node {
	return s.root
}

// Scheduler returns the session's update scheduler.
func (s *Session) Scheduler() *reactive.Scheduler {
	return s.sched
}

// RegisterNode makes node addressable from the wire under name.
// The caller is responsible for attaching the node to the tree.
func (s *Session) RegisterNode(name string, node *component.Node) {
	s.nodesMu.Lock()
	defer s.nodesMu.Unlock()
	s.nodes[name] = node
}

// Node returns the node registered under name.
func (s *Session) Node(name string) (*component.Node, bool) {
	s.nodesMu.RLock()
	defer s.nodesMu.RUnlock()
	n, ok := s.nodes[name]
	return n, ok
}

// Bind registers a named reactive binding: getter runs under tracking,
// and whenever its dependencies change the session sends a patch frame
// with the re-computed value. The initial value is sent immediately.
func (s *Session) Bind(name string, getter func() any) *reactive.Watcher {
	w := reactive.NewWatcher(s.sched, getter, func(prev, next any) {
		s.sendPatch(name, next)
	})

	s.watchersMu.Lock()
	s.watchers = append(s.watchers, w)
	s.watchersMu.Unlock()

	s.sendPatch(name, w.Value())
	return w
}

// Start starts the session's read, write, and event loops.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
	go s.eventLoop()
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}

	close(s.done)

	s.watchersMu.Lock()
	watchers := s.watchers
	s.watchers = nil
	s.watchersMu.Unlock()
	for _, w := range watchers {
		w.Dispose()
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.connMu.Unlock()

	if s.onClose != nil {
		s.onClose(s)
	}
}

// readLoop continuously reads frames from the WebSocket connection and
// queues them for the event loop. Blocks until the connection closes.
func (s *Session) readLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				getMetrics().readErrors.Inc()
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(msg, &frame); err != nil {
			s.logger.Error("frame decode error", "error", err)
			getMetrics().frameErrors.WithLabelValues("decode").Inc()
			s.sendError("invalid frame")
			continue
		}

		select {
		case s.frames <- frame:
		default:
			getMetrics().frameErrors.WithLabelValues("queue_full").Inc()
			s.sendError("frame queue full")
		}
	}
}

// writeLoop sends periodic heartbeat pings until the session closes.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.send(OutFrame{Type: framePing}); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// eventLoop processes queued frames one at a time. All reactive work for
// the session happens here, so writes, tracking, and flushing share one
// logical thread of control.
func (s *Session) eventLoop() {
	for {
		select {
		case frame := <-s.frames:
			s.processFrame(frame)
		case <-s.done:
			return
		}
	}
}

// processFrame runs handleFrame with panic recovery so a failing listener
// aborts only the current frame, never the session loop.
func (s *Session) processFrame(frame Frame) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("frame handler panic",
				"panic", r,
				"stack", string(debug.Stack()))
			getMetrics().handlerPanics.Inc()
			s.sendError(fmt.Sprintf("handler panic: %v", r))
		}
	}()

	s.handleFrame(frame)
}

// handleFrame applies one inbound frame and settles the scheduler.
// The settle at the end of each frame is the session's deferred flush
// point: reactions enqueued by the frame's writes run here, exactly once
// per distinct watcher per cycle.
func (s *Session) handleFrame(frame Frame) {
	getMetrics().framesTotal.WithLabelValues(frame.Type).Inc()

	switch frame.Type {
	case framePing:
		s.send(OutFrame{Type: framePong})
		return

	case frameSet:
		if frame.Key == "" {
			s.sendError("set frame requires a key")
			return
		}
		s.state.Set(frame.Key, frame.Value)

	case frameEvent:
		if frame.Event == "" {
			s.sendError("event frame requires an event name")
			return
		}

		name := frame.Node
		if name == "" {
			name = "root"
		}
		node, ok := s.Node(name)
		if !ok {
			s.sendError("unknown node: " + name)
			return
		}

		switch frame.Mode {
		case modeDispatch:
			node.Dispatch(frame.Event, frame.Args...)
		case modeBroadcast:
			node.Broadcast(frame.Event, frame.Args...)
		case modeEmit, "":
			node.Emit(frame.Event, frame.Args...)
		default:
			s.sendError("unknown mode: " + frame.Mode)
			return
		}

	default:
		s.sendError("unknown frame type: " + frame.Type)
		return
	}

	s.settle()
}

// settle drives the scheduler to quiescence for the current frame.
func (s *Session) settle() {
	cycles, err := s.sched.Settle()
	if cycles > 0 {
		getMetrics().flushCycles.Add(float64(cycles))
	}
	if err != nil {
		s.logger.Error("settle failed", "error", err, "cycles", cycles)
		s.sendError(err.Error())
	}
}

// sendPatch sends a binding's re-computed value to the client.
func (s *Session) sendPatch(binding string, value any) {
	if err := s.send(OutFrame{Type: framePatch, Binding: binding, Value: value}); err != nil {
		return
	}
	getMetrics().patchesSent.Inc()
}

// sendError reports a frame-level failure to the client.
func (s *Session) sendError(message string) {
	s.send(OutFrame{Type: frameError, Message: message})
}

// send sequences and delivers an outbound frame.
func (s *Session) send(frame OutFrame) error {
	if s.closed.Load() {
		return nil
	}
	frame.Seq = s.sendSeq.Add(1)
	return s.sender(frame)
}

// writeFrame is the default sender: JSON over the WebSocket connection.
func (s *Session) writeFrame(frame OutFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.logger.Error("write error", "error", err)
		getMetrics().writeErrors.Inc()
		return err
	}
	return nil
}
