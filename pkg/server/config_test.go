package server

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionConfigFillDefaults(t *testing.T) {
	c := &SessionConfig{PingInterval: 5 * time.Second}
	c.fillDefaults()

	if c.PongWait != 10*time.Second {
		t.Errorf("PongWait = %v, want 10s", c.PongWait)
	}
	if c.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", c.WriteTimeout)
	}
	if c.MaxMessageSize != 4*1024 {
		t.Errorf("MaxMessageSize = %d", c.MaxMessageSize)
	}

	noPing := &SessionConfig{}
	noPing.fillDefaults()
	if noPing.PingInterval != 0 || noPing.PongWait != 0 {
		t.Errorf("zero ping interval should stay disabled, got %+v", noPing)
	}
}

func TestServerConfigFillDefaultsDoesNotShareSessionConfig(t *testing.T) {
	session := &SessionConfig{WriteTimeout: time.Second}
	c := &ServerConfig{SessionConfig: session}
	c.fillDefaults()

	c.SessionConfig.WriteTimeout = time.Minute
	if session.WriteTimeout != time.Second {
		t.Error("fillDefaults should clone the session config")
	}
	if c.Address != "0.0.0.0:3000" {
		t.Errorf("Address = %q", c.Address)
	}
	if c.Logger == nil || c.CheckOrigin == nil {
		t.Error("Logger and CheckOrigin should be set")
	}
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"empty list allows all", nil, "https://evil.example", true},
		{"no origin header", []string{"https://stage.example"}, "", true},
		{"listed", []string{"https://stage.example"}, "https://stage.example", true},
		{"listed with slash and case", []string{"https://Stage.example/"}, "https://stage.example", true},
		{"not listed", []string{"https://stage.example"}, "https://evil.example", false},
		{"port differs", []string{"http://localhost:3000"}, "http://localhost:4000", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/section", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := originChecker(tt.allowed)(req); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
