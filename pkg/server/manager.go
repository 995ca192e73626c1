package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/songdirector/pkg/render"
	"github.com/vango-dev/songdirector/pkg/section"
	"github.com/vango-dev/songdirector/pkg/watch"
)

// SessionManager accepts viewer connections and supervises one Session per
// connection. Each session gets its own subscription on the shared cell.
type SessionManager struct {
	cell     *watch.Cell[section.State]
	renderer render.Renderer
	config   *SessionConfig
	upgrader websocket.Upgrader
	metrics  *Metrics
	logger   *slog.Logger

	// Sessions map protected by RWMutex
	sessions map[string]*Session
	mu       sync.RWMutex

	// Metrics
	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64
	peakSessions int

	// ctx outlives individual requests and is cancelled on Shutdown.
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopping atomic.Bool
}

// SessionStats contains aggregate session statistics.
type SessionStats struct {
	Active       int
	TotalCreated uint64
	TotalClosed  uint64
	Peak         int
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(cell *watch.Cell[section.State], renderer render.Renderer, config *SessionConfig, upgrader websocket.Upgrader, metrics *Metrics, logger *slog.Logger) *SessionManager {
	if config == nil {
		config = DefaultSessionConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		cell:     cell,
		renderer: renderer,
		config:   config,
		upgrader: upgrader,
		metrics:  metrics,
		logger:   logger,
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ServeHTTP upgrades the request and starts a session for it.
func (m *SessionManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.stopping.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an error response.
		m.logger.Debug("websocket upgrade failed", "error", err, "client_addr", r.RemoteAddr)
		m.metrics.RecordWebSocketError("upgrade")
		return
	}

	if m.Start(conn) == nil {
		deadline := time.Now().Add(m.config.CloseGracePeriod)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		conn.Close()
	}
}

// Start runs a session on conn in its own goroutine and returns it. It returns
// nil, leaving conn to the caller, once Shutdown has begun.
func (m *SessionManager) Start(conn *websocket.Conn) *Session {
	m.mu.Lock()
	if m.stopping.Load() {
		m.mu.Unlock()
		return nil
	}
	sess := newSession(conn, m.cell.Subscribe(), m.renderer, m.config, m.metrics, m.logger)
	m.registerLocked(sess)
	m.wg.Add(1)
	m.mu.Unlock()

	m.totalCreated.Add(1)
	m.metrics.RecordSessionStart()

	go func() {
		defer m.wg.Done()
		defer m.unregister(sess)
		sess.Run(m.ctx)
	}()
	return sess
}

func (m *SessionManager) registerLocked(sess *Session) {
	m.sessions[sess.ID] = sess
	if n := len(m.sessions); n > m.peakSessions {
		m.peakSessions = n
	}
}

func (m *SessionManager) unregister(sess *Session) {
	m.mu.Lock()
	delete(m.sessions, sess.ID)
	m.mu.Unlock()

	m.totalClosed.Add(1)
	m.metrics.RecordSessionClose(sess.Reason())
}

// Get returns the live session with id, or nil.
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sessions returns a snapshot of the live sessions.
func (m *SessionManager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Stats returns aggregate session statistics.
func (m *SessionManager) Stats() SessionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return SessionStats{
		Active:       len(m.sessions),
		TotalCreated: m.totalCreated.Load(),
		TotalClosed:  m.totalClosed.Load(),
		Peak:         m.peakSessions,
	}
}

// Shutdown stops accepting sessions, asks every live session to close and
// waits for them until ctx is done.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	// Taking the lock orders this against any Start that already passed its
	// stopping check, so its wg.Add happens before wg.Wait.
	m.mu.Lock()
	m.stopping.Store(true)
	m.mu.Unlock()
	m.cancel()

	finished := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
