package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/songdirector/pkg/render"
	"github.com/vango-dev/songdirector/pkg/section"
	"github.com/vango-dev/songdirector/pkg/watch"
)

// SessionState is the lifecycle state of a viewer session.
type SessionState int32

const (
	// StateConnected is the state before the initial push.
	StateConnected SessionState = iota

	// StateStreaming is the state while pushing changes.
	StateStreaming

	// StateClosed is terminal.
	StateClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int32(s))
	}
}

// CloseReason records why a session ended.
type CloseReason string

const (
	ReasonPeerClosed   CloseReason = "peer_closed"
	ReasonPushFailed   CloseReason = "push_failed"
	ReasonRenderFailed CloseReason = "render_failed"
	ReasonStateClosed  CloseReason = "state_closed"
	ReasonShutdown     CloseReason = "shutdown"
)

// Session is one live viewer connection. It owns the write side of its
// connection; only the session loop writes data frames.
type Session struct {
	ID         string
	RemoteAddr string
	CreatedAt  time.Time

	conn     *websocket.Conn
	sub      *watch.Subscription[section.State]
	renderer render.Renderer
	config   *SessionConfig
	metrics  *Metrics
	logger   *slog.Logger

	state  atomic.Int32
	reason atomic.Value // CloseReason
	pushes atomic.Uint64

	// peerClosed is closed by the read pump when the peer goes away.
	peerClosed chan struct{}

	// done is closed once the session has fully shut down.
	done      chan struct{}
	closeOnce sync.Once
}

// generateSessionID generates a random session ID.
func generateSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// newSession creates a session bound to conn and sub.
func newSession(conn *websocket.Conn, sub *watch.Subscription[section.State], renderer render.Renderer, config *SessionConfig, metrics *Metrics, logger *slog.Logger) *Session {
	id := generateSessionID()
	remote := ""
	if conn != nil {
		remote = conn.RemoteAddr().String()
	}
	return &Session{
		ID:         id,
		RemoteAddr: remote,
		CreatedAt:  time.Now(),
		conn:       conn,
		sub:        sub,
		renderer:   renderer,
		config:     config,
		metrics:    metrics,
		logger:     logger.With("session_id", id, "client_addr", remote),
		peerClosed: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Reason returns why the session closed, or "" while it is open.
func (s *Session) Reason() CloseReason {
	r, _ := s.reason.Load().(CloseReason)
	return r
}

// Pushes returns the number of fragments sent to the viewer.
func (s *Session) Pushes() uint64 {
	return s.pushes.Load()
}

// Done returns a channel that's closed when the session is done.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run pushes the current section, then streams every change until the peer
// leaves, a push or render fails, the state cell closes, or ctx is done.
// Run blocks until the session is closed.
func (s *Session) Run(ctx context.Context) {
	s.logger.Info("socket connection established")
	go s.readPump()
	defer func() { <-s.peerClosed }()

	if !s.pushLatest(ctx) {
		return
	}
	s.state.Store(int32(StateStreaming))

	var ping <-chan time.Time
	if s.config.PingInterval > 0 {
		ticker := time.NewTicker(s.config.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		switch s.next(ctx, ping) {
		case eventPeerClosed:
			s.close(ReasonPeerClosed)
			return

		case eventShutdown:
			s.closeGracefully(ReasonShutdown, websocket.CloseGoingAway, "server shutting down")
			return

		case eventPing:
			if err := s.sendPing(); err != nil {
				s.logger.Warn("error sending ping", "error", err)
				s.metrics.RecordWebSocketError("ping")
				s.close(ReasonPushFailed)
				return
			}

		case eventChanged:
			if !s.pushLatest(ctx) {
				return
			}
		}
	}
}

// sessionEvent is what woke the session loop.
type sessionEvent int

const (
	eventPeerClosed sessionEvent = iota
	eventShutdown
	eventPing
	eventChanged
)

// next blocks until something needs handling. Peer-closed wins over every
// other ready event, including a change that fired in the same instant.
func (s *Session) next(ctx context.Context, ping <-chan time.Time) sessionEvent {
	if s.peerHasClosed() {
		return eventPeerClosed
	}

	select {
	case <-s.peerClosed:
		return eventPeerClosed
	case <-ctx.Done():
		return eventShutdown
	case <-ping:
		return eventPing
	case <-s.sub.Changed():
		if s.peerHasClosed() {
			return eventPeerClosed
		}
		return eventChanged
	}
}

func (s *Session) peerHasClosed() bool {
	select {
	case <-s.peerClosed:
		return true
	default:
		return false
	}
}

// pushLatest renders the newest value and writes it. It closes the session
// and returns false on any failure.
func (s *Session) pushLatest(ctx context.Context) bool {
	st, err := s.sub.Latest()
	if errors.Is(err, watch.ErrClosed) {
		s.logger.Error("section state closed unexpectedly")
		s.closeGracefully(ReasonStateClosed, websocket.CloseInternalServerErr, "state unavailable")
		return false
	}

	text, err := s.renderer.Render(ctx, render.ViewSectionDisplay, st)
	if err != nil {
		s.logger.Error("error rendering template", "error", err)
		s.metrics.RecordRenderError(render.ViewSectionDisplay)
		s.closeGracefully(ReasonRenderFailed, websocket.CloseInternalServerErr, "render failed")
		return false
	}

	// The peer may have left while rendering.
	if s.peerHasClosed() {
		s.close(ReasonPeerClosed)
		return false
	}

	s.logger.Debug("sending section", "section", st.String())
	if err := s.write(text); err != nil {
		s.logger.Info("error sending message", "error", err)
		s.metrics.RecordWebSocketError("write")
		s.close(ReasonPushFailed)
		return false
	}
	s.pushes.Add(1)
	s.metrics.RecordPush()
	return true
}

// write sends one text frame.
func (s *Session) write(text string) error {
	if s.conn == nil {
		return ErrNoConnection
	}
	if s.IsClosed() {
		return ErrSessionClosed
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return NewSessionError(s.ID, "write", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return NewSessionError(s.ID, "write", err)
	}
	return nil
}

// sendPing sends a heartbeat ping.
func (s *Session) sendPing() error {
	if s.conn == nil {
		return ErrNoConnection
	}
	deadline := time.Now().Add(s.config.WriteTimeout)
	if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return NewSessionError(s.ID, "ping", err)
	}
	return nil
}

// readPump reads until the connection fails or the peer closes it, then
// closes peerClosed. Incoming data frames are ignored.
func (s *Session) readPump() {
	defer close(s.peerClosed)
	if s.conn == nil {
		return
	}

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	if s.config.PingInterval > 0 {
		s.conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		})
	}

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				s.logger.Info("client closed socket")
			case s.IsClosed():
			default:
				s.logger.Debug("socket read ended", "error", err)
			}
			return
		}
	}
}

// closeGracefully sends a close frame before closing.
func (s *Session) closeGracefully(reason CloseReason, code int, text string) {
	s.closeOnce.Do(func() {
		if s.conn != nil {
			deadline := time.Now().Add(s.config.CloseGracePeriod)
			_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
		}
		s.shutdown(reason)
	})
}

// close closes the session without a close frame.
func (s *Session) close(reason CloseReason) {
	s.closeOnce.Do(func() {
		s.shutdown(reason)
	})
}

func (s *Session) shutdown(reason CloseReason) {
	s.reason.Store(reason)
	s.state.Store(int32(StateClosed))
	if s.conn != nil {
		s.conn.Close()
	}
	close(s.done)

	s.logger.Info("closing socket",
		"reason", string(reason),
		"pushes", s.pushes.Load(),
		"duration", time.Since(s.CreatedAt).Round(time.Millisecond))
}

// IsClosed reports whether the session has closed.
func (s *Session) IsClosed() bool {
	return s.State() == StateClosed
}
