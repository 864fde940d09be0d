// Package server hosts Ripple runtimes over HTTP and WebSocket.
//
// Each WebSocket connection on /live gets a Session owning its own
// scheduler, reactive state map, and component node tree. Inbound JSON
// frames mutate state ("set") or propagate bus events ("event"); after
// every frame the session settles its scheduler and streams the resulting
// binding patches back to the client. All reactive work for a session
// happens on its single event-loop goroutine, so the core's cooperative
// scheduling model holds per session.
package server
