// Package config loads pipeline settings from YAML.
//
// A file only needs to name the settings it changes; everything else keeps
// the value from segment.DefaultConfig. Unknown keys are rejected so that a
// misspelled setting does not silently fall back to its default.
//
// Example:
//
//	hull_scale: 1.2
//	contour_source: opened
//	grabcut:
//	  iterations: 5
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/extent-mcp/internal/segment"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "EXTENT_MCP_CONFIG"

// Parse decodes YAML from data over the defaults and validates the result.
func Parse(data []byte) (segment.Config, error) {
	cfg := segment.DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return segment.Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return segment.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads the YAML file at path. An empty path yields the defaults.
func Load(path string) (segment.Config, error) {
	if path == "" {
		return segment.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return segment.Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}
