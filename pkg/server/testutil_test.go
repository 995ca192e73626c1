package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/songdirector/pkg/render"
	"github.com/vango-dev/songdirector/pkg/section"
	"github.com/vango-dev/songdirector/pkg/watch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() *ServerConfig {
	config := DefaultServerConfig()
	config.Logger = testLogger()
	config.SessionConfig.PingInterval = 0
	return config
}

// newTestServer builds a Server around a fresh cell. A nil renderer uses the
// built-in views.
func newTestServer(t *testing.T, config *ServerConfig, renderer render.Renderer) (*Server, *watch.Cell[section.State]) {
	t.Helper()
	if config == nil {
		config = testConfig()
	}
	if renderer == nil {
		renderer = render.NewViews(render.DefaultOptions())
	}
	cell := watch.New(section.State{})
	srv, err := New(config, cell, renderer)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Sessions().Shutdown(ctx)
	})
	return srv, cell
}

// startHTTP serves srv on a loopback listener.
func startHTTP(t *testing.T, srv *Server) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func socketURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/section"
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(socketURL(ts), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readText reads one text frame within a second.
func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if typ != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", typ)
	}
	return string(data)
}

// readUntil reads frames until one equals want. Intermediate states may be
// skipped by coalescing, so earlier frames are ignored.
func readUntil(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		if string(data) == want {
			return
		}
	}
	t.Fatalf("timed out waiting for %q", want)
}

// readClose reads until the server closes the socket and returns the close
// code.
func readClose(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var ce *websocket.CloseError
		if !errors.As(err, &ce) {
			t.Fatalf("expected close frame, got %v", err)
		}
		return ce.Code
	}
}

// fragment renders the section display the server pushes for st.
func fragment(t *testing.T, st section.State) string {
	t.Helper()
	html, err := render.NewViews(render.DefaultOptions()).Render(context.Background(), render.ViewSectionDisplay, st)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return html
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
