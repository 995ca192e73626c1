package config

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/vango-dev/songdirector/internal/errors"
)

const (
	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "songdirector.json"

	// EnvPrefix prefixes every environment variable read by ApplyEnv.
	EnvPrefix = "SONG_DIRECTOR_"

	// DefaultAddress listens on all interfaces, port 3000.
	DefaultAddress = "0.0.0.0:3000"

	// DefaultStaticDir is the directory served for unmatched GET requests.
	DefaultStaticDir = "public"

	// DefaultMetricsPath is where Prometheus metrics are exposed.
	DefaultMetricsPath = "/metrics"
)

// reservedPaths are application routes the metrics path may not shadow.
var reservedPaths = map[string]bool{
	"/":        true,
	"/view":    true,
	"/section": true,
	"/healthz": true,
}

// Duration is a time.Duration that reads as "10s" in JSON and environment values.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the complete server configuration.
type Config struct {
	// Address is the host:port the HTTP server listens on.
	Address string `json:"address,omitempty" env:"ADDR"`

	// StaticDir holds static assets (scripts, styles, icons). Empty disables static serving.
	StaticDir string `json:"staticDir,omitempty" env:"STATIC_DIR"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" env:"LOG_LEVEL"`

	// LogFormat is text or json.
	LogFormat string `json:"logFormat,omitempty" env:"LOG_FORMAT"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" env:"SHUTDOWN_TIMEOUT"`

	// WriteTimeout bounds a single WebSocket write.
	WriteTimeout Duration `json:"writeTimeout,omitempty" env:"WRITE_TIMEOUT"`

	// PingInterval is the WebSocket heartbeat period. Zero disables heartbeats.
	PingInterval Duration `json:"pingInterval,omitempty" env:"PING_INTERVAL"`

	// MetricsPath exposes Prometheus metrics. Empty disables the endpoint.
	MetricsPath string `json:"metricsPath,omitempty" env:"METRICS_PATH"`

	// AllowedOrigins restricts WebSocket upgrades by Origin header. Empty allows all.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" env:"ALLOWED_ORIGINS" envSeparator:","`

	// configPath is the file this config was loaded from, if any.
	configPath string
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Address:         DefaultAddress,
		StaticDir:       DefaultStaticDir,
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: Duration(10 * time.Second),
		WriteTimeout:    Duration(10 * time.Second),
		PingInterval:    Duration(30 * time.Second),
		MetricsPath:     DefaultMetricsPath,
	}
}

// Load resolves defaults, the optional songdirector.json in dir, and the
// environment. A missing file is not an error.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	cfg, err := LoadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = New()
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a JSON config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("C001").
			WithDetail("Could not read " + path).
			Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C001").
			WithDetail("Failed to parse " + path).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON").
			Wrap(err)
	}
	cfg.configPath = path
	return cfg, nil
}

// ApplyEnv overrides fields from SONG_DIRECTOR_* environment variables.
// Unset variables leave the current value untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("C003").Wrap(err)
	}
	return nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return errors.New("C002").
			WithDetail("address " + `"` + c.Address + `": ` + err.Error())
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return errors.New("C004").
			WithDetail(`unknown level "` + c.LogLevel + `"`)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return errors.New("C006").
			WithDetail(`unknown format "` + c.LogFormat + `"`)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("C005").WithDetail("shutdownTimeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("C005").WithDetail("writeTimeout must be positive")
	}
	if c.PingInterval < 0 {
		return errors.New("C005").WithDetail("pingInterval must not be negative")
	}
	if c.MetricsPath != "" {
		if !strings.HasPrefix(c.MetricsPath, "/") || reservedPaths[c.MetricsPath] {
			return errors.New("C007").
				WithDetail(`metrics path "` + c.MetricsPath + `" is not allowed`)
		}
	}
	return nil
}

// SlogLevel returns the configured log level. Invalid levels map to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

// JSONLogs reports whether logs should be written as JSON.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.LogFormat, "json")
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
