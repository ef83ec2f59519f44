package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDecodesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoutly.json")
	body := `{"depth": 3, "max_pages": 50, "output": "json", "request_timeout": "30s"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Depth != 3 || cfg.MaxPages != 50 || cfg.Output != "json" {
		t.Fatalf("unexpected decoded config: %+v", cfg)
	}
	if cfg.RequestTimeout.Duration != 30*time.Second {
		t.Fatalf("expected request_timeout 30s, got %v", cfg.RequestTimeout.Duration)
	}
	if cfg.Concurrency != Default().Concurrency {
		t.Fatalf("expected unset fields to keep their defaults, got concurrency %d", cfg.Concurrency)
	}
}

func TestLoadDecodesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoutly.yaml")
	body := "depth: 7\nconcurrency: 10\nrequest_timeout: 15\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Depth != 7 || cfg.Concurrency != 10 {
		t.Fatalf("unexpected decoded config: %+v", cfg)
	}
	if cfg.RequestTimeout.Duration != 15*time.Second {
		t.Fatalf("expected request_timeout decoded from a bare integer as seconds, got %v", cfg.RequestTimeout.Duration)
	}
}

func TestLoadDecodesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoutly.toml")
	body := "depth = 9\noutput = \"text\"\nrequest_timeout = \"5s\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Depth != 9 {
		t.Fatalf("unexpected decoded config: %+v", cfg)
	}
	if cfg.RequestTimeout.Duration != 5*time.Second {
		t.Fatalf("expected request_timeout 5s, got %v", cfg.RequestTimeout.Duration)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if cfg.Depth != want.Depth || cfg.MaxPages != want.MaxPages || cfg.Output != want.Output || cfg.Concurrency != want.Concurrency {
		t.Fatalf("expected Default() config, got %+v", cfg)
	}
}

func TestDiscoverFindsWorkingDirectoryConfigFirst(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(cwd)

	if err := os.WriteFile(filepath.Join(dir, "scoutly.json"), []byte(`{"depth": 1}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	found, err := Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != "scoutly.json" {
		t.Fatalf("expected to discover ./scoutly.json, got %q", found)
	}
}

func TestDiscoverReturnsEmptyWhenNothingFound(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(cwd)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "empty-xdg"))

	found, err := Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != "" {
		t.Fatalf("expected no config found, got %q", found)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []Config{
		{Depth: -1, Concurrency: 1, Output: "text", QueueSize: 1},
		{MaxPages: -1, Concurrency: 1, Output: "text", QueueSize: 1},
		{Concurrency: 0, Output: "text", QueueSize: 1},
		{Concurrency: 1, RateLimit: -1, Output: "text", QueueSize: 1},
		{Concurrency: 1, Output: "xml", QueueSize: 1},
		{Concurrency: 1, Output: "text", QueueSize: 0},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected a validation error for %+v", i, c)
		}
	}
}

func TestValidateAcceptsDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected Default() to validate cleanly, got %v", err)
	}
}
