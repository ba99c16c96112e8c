// Package config loads the tool configuration shared by the watch,
// relay, and decode commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jdwptap/jdwptap/internal/dispatch"
	"github.com/jdwptap/jdwptap/internal/spool"
	"github.com/jdwptap/jdwptap/jdwp"
)

// Config holds all configurable parameters.
type Config struct {
	Dirs    spool.DirConfig       `yaml:"dirs"`
	Journal string                `yaml:"journal"`
	Store   string                `yaml:"store"`
	Sizes   jdwp.IDSizes          `yaml:"id_sizes"`
	Sinks   []dispatch.SinkConfig `yaml:"sinks"`
	Poll    bool                  `yaml:"poll"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dirs:    spool.DefaultDirConfig(),
		Journal: "/var/lib/jdwptap/journal.jsonl",
		Sizes:   jdwp.UniformIDSizes(8),
	}
}

// Load loads configuration from a YAML file.
// Empty path falls back to ~/.jdwptap/config.yaml.
// Missing file returns defaults. Invalid YAML or values return an error.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Default(), nil
		}
		path = filepath.Join(home, ".jdwptap", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values. Called by Load; call it again after
// applying flag overrides.
func (c *Config) Validate() error {
	if err := c.Sizes.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Journal == "" {
		return fmt.Errorf("config: journal path is required")
	}
	for i, sink := range c.Sinks {
		if sink.URL == "" {
			return fmt.Errorf("config: sink %d: url is required", i)
		}
		switch sink.Format {
		case "", "generic", "slack":
		default:
			return fmt.Errorf("config: sink %d: unknown format %q", i, sink.Format)
		}
		for _, kind := range sink.Kinds {
			if _, ok := jdwp.EventKindFromName(kind); !ok {
				return fmt.Errorf("config: sink %d: unknown event kind %q", i, kind)
			}
		}
	}
	return nil
}

// DefaultYAML returns a commented YAML template for a fresh install.
func DefaultYAML() string {
	return `# jdwptap configuration
#
# The watch daemon decodes capture files dropped into dirs.spool and
# appends every event to the journal. The relay writes captures there
# when pointed at the same directory.

# Directory layout for the capture pipeline.
dirs:
  spool: /var/lib/jdwptap/spool
  processed: /var/lib/jdwptap/processed
  failed: /var/lib/jdwptap/failed
  state: /var/lib/jdwptap/state

# Append-only JSONL event journal.
journal: /var/lib/jdwptap/journal.jsonl

# Optional SQLite index for ad-hoc queries (empty disables it).
store: ""

# Identifier widths in bytes, from the VM's IDSizes reply (1..8 each).
# Raw decode falls back to these when --id-size is not given; captures
# carry their own sizes in the header.
id_sizes:
  object: 8
  thread: 8
  frame: 8
  method: 8
  field: 8
  reference_type: 8

# Webhook sinks notified for matching events. Empty kinds list matches
# every kind. Formats: generic | slack.
sinks: []
#  - url: https://hooks.example.com/jdwp
#    format: generic
#    kinds: [BREAKPOINT, EXCEPTION]

# Poll the spool instead of using inotify (for NFS and similar).
poll: false
`
}
