// Package config loads seoscout's configuration file, generalizing
// haesookimDev-newscrawler/internal/config.Config from a single
// YAML-only crawler-service config into spec.md §6's CLI-flag-mirroring
// config with JSON, YAML, and TOML support and the discovery order
// spec.md §6 names.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config mirrors every CLI flag spec.md §6 names, so a config file can
// supply the same settings a flag would, with flags taking precedence.
type Config struct {
	Depth            int               `json:"depth" yaml:"depth" toml:"depth"`
	MaxPages         int               `json:"max_pages" yaml:"max_pages" toml:"max_pages"`
	Output           string            `json:"output" yaml:"output" toml:"output"`
	Save             string            `json:"save" yaml:"save" toml:"save"`
	External         bool              `json:"external" yaml:"external" toml:"external"`
	Verbose          bool              `json:"verbose" yaml:"verbose" toml:"verbose"`
	IgnoreRedirects  bool              `json:"ignore_redirects" yaml:"ignore_redirects" toml:"ignore_redirects"`
	KeepFragments    bool              `json:"keep_fragments" yaml:"keep_fragments" toml:"keep_fragments"`
	RateLimit        float64           `json:"rate_limit" yaml:"rate_limit" toml:"rate_limit"`
	Concurrency      int               `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	RespectRobotsTxt bool              `json:"respect_robots_txt" yaml:"respect_robots_txt" toml:"respect_robots_txt"`
	UserAgent        string            `json:"user_agent" yaml:"user_agent" toml:"user_agent"`
	RequestTimeout   Duration          `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	Headers          map[string]string `json:"headers" yaml:"headers" toml:"headers"`
	IncludePatterns  []string          `json:"include_patterns" yaml:"include_patterns" toml:"include_patterns"`
	ExcludePatterns  []string          `json:"exclude_patterns" yaml:"exclude_patterns" toml:"exclude_patterns"`

	// QueueSize bounds the dispatcher's shared job channel. The crawl
	// engine and link validator both submit work back into it from
	// inside jobs already running on it (a page's outbound links queue
	// more fetches and more link checks), so a channel too small for a
	// page's fan-out can wedge every worker at once. Mirrors
	// haesookimDev-newscrawler/internal/config.Config's queue_size.
	QueueSize int `json:"queue_size" yaml:"queue_size" toml:"queue_size"`
}

// Default returns the baseline configuration applied before any file or
// flag overrides, mirroring the flag defaults spec.md §6's table lists.
func Default() Config {
	return Config{
		Depth:            5,
		MaxPages:         200,
		Output:           "text",
		External:         false,
		Verbose:          false,
		IgnoreRedirects:  false,
		KeepFragments:    false,
		RateLimit:        0,
		Concurrency:      5,
		RespectRobotsTxt: true,
		UserAgent:        "seoscout/1.0",
		RequestTimeout:   DurationFrom(0),
		Headers:          map[string]string{},
		QueueSize:        2048,
	}
}

// configBasenames is the discovery order spec.md §6 specifies: the
// working directory is tried before the user config directory, and
// within each, json before toml before yaml.
var configExtensions = []string{"json", "toml", "yaml", "yml"}

// Discover locates a config file, trying the current directory first
// and then the XDG user config directory, across every supported
// extension. It returns "" with no error if none exists — an absent
// config file is not a startup error.
func Discover() (string, error) {
	for _, ext := range configExtensions {
		candidate := "scoutly." + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	for _, ext := range configExtensions {
		found, err := xdg.SearchConfigFile(filepath.Join("scoutly", "config."+ext))
		if err == nil && found != "" {
			return found, nil
		}
	}
	return "", nil
}

// Load reads and decodes the config file at path, starting from
// Default(). An empty path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer fh.Close()

	if err := decode(fh, path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(r io.Reader, path string, cfg *Config) error {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("config: decode json: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("config: decode yaml: %w", err)
		}
	case "toml":
		if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
			return fmt.Errorf("config: decode toml: %w", err)
		}
	default:
		return fmt.Errorf("config: unsupported extension %q", ext)
	}
	return nil
}

// Validate enforces the invariants spec.md §6 requires of the merged
// configuration, after flags have been applied on top of the file.
func (c Config) Validate() error {
	if c.Depth < 0 {
		return errors.New("depth must be >= 0")
	}
	if c.MaxPages < 0 {
		return errors.New("max_pages must be >= 0")
	}
	if c.Concurrency <= 0 {
		return errors.New("concurrency must be > 0")
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit must be >= 0")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be > 0 (got %d)", c.QueueSize)
	}
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("output must be text or json, got %q", c.Output)
	}
	return nil
}
