package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConfiguredLoggerReachesEveryComponent(t *testing.T) {
	var out syncBuffer
	config := testConfig()
	config.Logger = slog.New(slog.NewJSONHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	srv, _ := newTestServer(t, config, nil)
	h := srv.Handler()

	putForm(t, h, "/section/type", url.Values{FieldSectionType: {"B"}})
	do(t, h, http.MethodDelete, "/section")

	logs := out.String()
	for _, want := range []string{
		`"msg":"setting section type","component":"control"`,
		`"msg":"clearing section","component":"control"`,
		`"msg":"handled","component":"server"`,
		`"route":"/section/type"`,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %s:\n%s", want, logs)
		}
	}
}
