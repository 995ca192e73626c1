package songdirector

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/songdirector/internal/config"
	"github.com/vango-dev/songdirector/internal/errors"
	"github.com/vango-dev/songdirector/pkg/section"
)

func testApp(t *testing.T) *App {
	t.Helper()
	cfg := config.New()
	cfg.StaticDir = t.TempDir()
	cfg.PingInterval = 0
	app, err := New(cfg, NewLogger(&bytes.Buffer{}, cfg))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return app
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Address = "no-port"

	_, err := New(cfg, nil)
	var e *errors.Error
	if !errors.As(err, &e) || e.Code != "C002" {
		t.Fatalf("New() error = %v, want C002", err)
	}
}

func TestAppEndToEnd(t *testing.T) {
	app := testApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- app.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/section", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, first, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(first), section.Placeholder) {
		t.Errorf("initial push %q should show the placeholder", first)
	}

	put := func(path, field, value string) {
		req, _ := http.NewRequest(http.MethodPut, base+path, strings.NewReader(url.Values{field: {value}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("PUT %s status = %d", path, resp.StatusCode)
		}
	}
	put("/section/type", "section_type", "C")
	put("/section/number", "section_number", "2")

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for C2: %v", err)
		}
		if strings.Contains(string(msg), ">C2<") {
			break
		}
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	if !app.Cell().IsClosed() {
		t.Error("cell should be closed after Serve returns")
	}
}

func TestAppHandler(t *testing.T) {
	app := testApp(t)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /view status = %d", rec.Code)
	}
}

func TestAppServesBuiltinClient(t *testing.T) {
	app := testApp(t)
	for _, path := range []string{"/client.js", "/style.css"} {
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
			t.Errorf("GET %s = %d (%d bytes)", path, rec.Code, rec.Body.Len())
		}
	}
}

func TestRunListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := config.New()
	cfg.Address = ln.Addr().String()
	app, err := New(cfg, NewLogger(&bytes.Buffer{}, cfg))
	if err != nil {
		t.Fatal(err)
	}

	err = app.Run(context.Background())
	var e *errors.Error
	if !errors.As(err, &e) || e.Code != "S002" {
		t.Fatalf("Run() error = %v, want S002", err)
	}
}

func TestNewLoggerFormats(t *testing.T) {
	cfg := config.New()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := NewLogger(&buf, cfg)
	logger.Info("hidden")
	logger.Warn("shown", "section", "B3")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log output %q is not one JSON line: %v", buf.String(), err)
	}
	if entry["msg"] != "shown" || entry["section"] != "B3" {
		t.Errorf("entry = %v", entry)
	}
}
