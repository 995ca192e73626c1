package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--short"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != version {
		t.Errorf("version --short = %q, want %q", got, version)
	}
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	file := `{"address": "127.0.0.1:4000", "logLevel": "debug", "staticDir": "assets"}`
	if err := os.WriteFile(filepath.Join(dir, "songdirector.json"), []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := serveCmd()
	if err := cmd.ParseFlags([]string{"--config", dir, "--addr", "127.0.0.1:5000", "--no-metrics"}); err != nil {
		t.Fatal(err)
	}
	opts := serveOptions{configDir: dir, addr: "127.0.0.1:5000", noMetrics: true}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Address != "127.0.0.1:5000" {
		t.Errorf("Address = %q, want flag value", cfg.Address)
	}
	if cfg.LogLevel != "debug" || cfg.StaticDir != "assets" {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.MetricsPath != "" {
		t.Errorf("MetricsPath = %q, want disabled", cfg.MetricsPath)
	}
}

func TestLoadConfigInvalidFlag(t *testing.T) {
	cmd := serveCmd()
	if err := cmd.ParseFlags([]string{"--log-format", "xml"}); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(cmd, serveOptions{configDir: t.TempDir(), logFormat: "xml"})
	if err == nil {
		t.Fatal("loadConfig() should reject an unknown log format")
	}
}
