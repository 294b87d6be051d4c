// Package config provides configuration loading and management for moveng.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/moveng/internal/source"
)

// Config represents the complete moveng configuration
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Graph   GraphConfig   `yaml:"graph"`
	Archive ArchiveConfig `yaml:"archive"`
	Watch   WatchConfig   `yaml:"watch"`
}

// SourceConfig selects where record files are read from
type SourceConfig struct {
	// Kind is "local" or "archive"
	Kind string `yaml:"kind"`
	// Path is the repository directory (local) or zip file (archive)
	Path string `yaml:"path"`
	// URL is an http(s) zip archive; takes precedence over Path for archives
	URL string `yaml:"url"`
	// Root limits reading to a subdirectory of the repository
	Root string `yaml:"root"`
	// Include and Exclude are doublestar globs over repository paths
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Timeout bounds an archive download
	Timeout time.Duration `yaml:"timeout"`
	// MaxBytes caps an archive download
	MaxBytes int64 `yaml:"max_bytes"`
}

// GraphConfig configures graph derivation and neighborhood queries
type GraphConfig struct {
	// Depth is the default neighborhood depth
	Depth int `yaml:"depth"`
	// Strict fails graph building on dangling edges instead of dropping them
	Strict bool `yaml:"strict"`
}

// ArchiveConfig configures the SQLite snapshot archive
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// Debounce is the quiet period before a recompilation
	Debounce time.Duration `yaml:"debounce"`
	// Archive writes every successful recompilation to the archive
	Archive bool `yaml:"archive"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:     source.KindLocal,
			Path:     ".",
			Timeout:  30 * time.Second,
			MaxBytes: source.DefaultArchiveLimit,
		},
		Graph: GraphConfig{
			Depth: 1,
		},
		Archive: ArchiveConfig{
			Path: filepath.Join(".moveng", "archive.db"),
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case source.KindLocal:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for local sources")
		}
	case source.KindArchive:
		if c.Source.Path == "" && c.Source.URL == "" {
			return fmt.Errorf("source.url or source.path is required for archive sources")
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", source.KindLocal, source.KindArchive, c.Source.Kind)
	}
	if _, err := source.CleanRoot(c.Source.Root); err != nil {
		return fmt.Errorf("source.root: %w", err)
	}
	if err := c.Filter().Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if c.Source.Timeout < 0 {
		return fmt.Errorf("source.timeout must not be negative")
	}
	if c.Source.MaxBytes < 0 {
		return fmt.Errorf("source.max_bytes must not be negative")
	}
	if c.Graph.Depth < 0 {
		return fmt.Errorf("graph.depth must not be negative")
	}
	if c.Archive.Path == "" {
		return fmt.Errorf("archive.path is required")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// Filter returns the source include/exclude filter.
func (c *Config) Filter() source.Filter {
	return source.Filter{Include: c.Source.Include, Exclude: c.Source.Exclude}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	file, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	config.Merge(file)
	return config, nil
}

// parseFile reads a YAML file into a zero Config. Relative paths in the
// file are resolved against the file's directory.
func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	config.Source.Path = resolve(dir, config.Source.Path)
	config.Archive.Path = resolve(dir, config.Archive.Path)
	return config, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Source
	if other.Source.Kind != "" {
		c.Source.Kind = other.Source.Kind
	}
	if other.Source.Path != "" {
		c.Source.Path = other.Source.Path
	}
	if other.Source.URL != "" {
		c.Source.URL = other.Source.URL
	}
	if other.Source.Root != "" {
		c.Source.Root = other.Source.Root
	}
	if len(other.Source.Include) > 0 {
		c.Source.Include = other.Source.Include
	}
	if len(other.Source.Exclude) > 0 {
		c.Source.Exclude = other.Source.Exclude
	}
	if other.Source.Timeout != 0 {
		c.Source.Timeout = other.Source.Timeout
	}
	if other.Source.MaxBytes != 0 {
		c.Source.MaxBytes = other.Source.MaxBytes
	}

	// Graph
	if other.Graph.Depth != 0 {
		c.Graph.Depth = other.Graph.Depth
	}
	if other.Graph.Strict {
		c.Graph.Strict = true
	}

	// Archive
	if other.Archive.Path != "" {
		c.Archive.Path = other.Archive.Path
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.Archive {
		c.Watch.Archive = true
	}
}
