package server

import (
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionConfig holds configuration for individual viewer sessions.
type SessionConfig struct {
	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is the time between heartbeat pings. Zero disables pings
	// and the read deadline that goes with them.
	// Default: 30 seconds.
	PingInterval time.Duration

	// PongWait is how long the peer may stay silent (no pong or other frame)
	// before the session is considered gone. Only used with PingInterval > 0.
	// Default: 2 * PingInterval.
	PongWait time.Duration

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: 4KB.
	MaxMessageSize int64

	// CloseGracePeriod bounds the write of the close frame.
	// Default: 1 second.
	CloseGracePeriod time.Duration
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
		PongWait:         60 * time.Second,
		MaxMessageSize:   4 * 1024,
		CloseGracePeriod: time.Second,
	}
}

// Clone returns a copy of the SessionConfig.
func (c *SessionConfig) Clone() *SessionConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// fillDefaults sets unset fields from DefaultSessionConfig.
func (c *SessionConfig) fillDefaults() {
	defaults := DefaultSessionConfig()
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.PingInterval > 0 && c.PongWait == 0 {
		c.PongWait = 2 * c.PingInterval
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = defaults.MaxMessageSize
	}
	if c.CloseGracePeriod == 0 {
		c.CloseGracePeriod = defaults.CloseGracePeriod
	}
}

// ServerConfig holds configuration for the HTTP/WebSocket server.
type ServerConfig struct {
	// Address is the address to listen on (e.g., ":8080" or "0.0.0.0:3000").
	// Default: "0.0.0.0:3000".
	Address string

	// ReadBufferSize is the WebSocket read buffer size.
	// Default: 1024.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	// Default: 1024.
	WriteBufferSize int

	// AllowedOrigins limits WebSocket upgrades to these origins
	// (scheme://host[:port]). Empty allows any origin.
	AllowedOrigins []string

	// CheckOrigin overrides AllowedOrigins when set.
	CheckOrigin func(r *http.Request) bool

	// SessionConfig is the configuration for viewer sessions.
	// Default: DefaultSessionConfig().
	SessionConfig *SessionConfig

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// StaticDir is served for GET requests no route matches.
	StaticDir string

	// Assets is served beneath StaticDir: files in StaticDir win. Empty
	// StaticDir and nil Assets disable static serving.
	Assets fs.FS

	// MetricsPath exposes Prometheus metrics. Empty disables the endpoint.
	MetricsPath string

	// MetricsRegistry collects the server metrics. When nil the server creates
	// its own registry with Go and process collectors.
	MetricsRegistry *prometheus.Registry

	// Logger is the base logger. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           "0.0.0.0:3000",
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		SessionConfig:     DefaultSessionConfig(),
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MetricsPath:       "/metrics",
	}
}

// fillDefaults sets unset fields from DefaultServerConfig.
func (c *ServerConfig) fillDefaults() {
	defaults := DefaultServerConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = defaults.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = defaults.WriteBufferSize
	}
	if c.SessionConfig == nil {
		c.SessionConfig = defaults.SessionConfig
	} else {
		c.SessionConfig = c.SessionConfig.Clone()
	}
	c.SessionConfig.fillDefaults()
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = originChecker(c.AllowedOrigins)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// originChecker allows requests without an Origin header and requests whose
// origin is listed. An empty list allows everything.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return set[strings.ToLower(u.Scheme+"://"+u.Host)]
	}
}
