// Package config loads the optional nwocg.yaml settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nwocg/internal/graph"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "nwocg.yaml"

// Config holds generation settings. Explicitly set CLI flags win over file values.
type Config struct {
	Prefix    string `yaml:"prefix" json:"prefix"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	Header    *bool  `yaml:"header,omitempty" json:"header,omitempty"`
	HistoryDB string `yaml:"history_db,omitempty" json:"history_db,omitempty"`
	Format    string `yaml:"format,omitempty" json:"format,omitempty"`

	// Path is the file the settings came from, empty for defaults.
	Path string `yaml:"-" json:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	header := true
	return &Config{
		Prefix:    "nwocg",
		OutputDir: ".",
		Header:    &header,
		Format:    "text",
	}
}

// Load reads settings from path. An empty path tries DefaultFileName and
// falls back to defaults when it does not exist; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes YAML settings over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Prefix != "" && !graph.ValidIdentifier(c.Prefix) {
		return fmt.Errorf("prefix %q is not a C identifier", c.Prefix)
	}
	switch c.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("format %q must be text or json", c.Format)
	}
	return nil
}

// WantHeader reports whether the companion header should be written.
func (c *Config) WantHeader() bool {
	return c.Header == nil || *c.Header
}
