// Package server exposes the song director over HTTP and WebSocket.
//
// # Architecture
//
//   - Server: chi router, page rendering, control endpoints, graceful shutdown
//   - SessionManager: upgrades viewer connections and supervises their sessions
//   - Session: one live viewer; pushes a rendered fragment on connect and on
//     every change of the shared section state
//   - Metrics: Prometheus collectors for requests, mutations and sessions
//   - static files: the static directory layered over built-in assets, for
//     any GET no route matches
//
// # Session Lifecycle
//
// A Session moves through three states:
//
//	Connected ──initial push──▶ Streaming ──▶ Closed
//
// While streaming, the session loop waits on two named events: the peer
// closing its side of the connection and the section state changing. When
// both are ready, peer-closed wins and nothing more is written. Each session
// has its own read pump goroutine whose only job is to notice the peer going
// away; clients never send application messages.
//
// Sessions never block each other or the control endpoints: the shared state
// wakes subscribers by closing a channel, so a slow viewer only delays itself
// and catches up with the newest value.
package server
