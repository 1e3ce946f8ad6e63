// Package config loads the rlgen.json project file, whose values are the
// defaults for command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/hostlang"
)

// FileName is the name of the project file
const FileName = "rlgen.json"

// ErrNotFound is returned when no project file exists in the directory tree
var ErrNotFound = errors.New("no " + FileName + " found")

// Config represents the rlgen.json configuration file
type Config struct {
	Lang             string `json:"lang"`
	Style            string `json:"style"`
	Partitions       int    `json:"partitions,omitempty"`
	NoLineDirectives bool   `json:"no_line_directives,omitempty"`
}

// Default returns the configuration used when no project file exists
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Lang == "" {
		c.Lang = hostlang.C.String()
	}
	if c.Style == "" {
		c.Style = codegen.Tables.String()
	}
	if c.Partitions == 0 {
		c.Partitions = 1
	}
}

// HostLang parses the configured host language
func (c *Config) HostLang() (hostlang.Lang, error) {
	return hostlang.Parse(c.Lang)
}

// CodeStyle parses the configured code style
func (c *Config) CodeStyle() (codegen.Style, error) {
	return codegen.ParseStyle(c.Style)
}

// Validate checks that every value names something real
func (c *Config) Validate() error {
	if _, err := c.HostLang(); err != nil {
		return fmt.Errorf("invalid lang: %w", err)
	}
	if _, err := c.CodeStyle(); err != nil {
		return fmt.Errorf("invalid style: %w", err)
	}
	if c.Partitions < 1 {
		return fmt.Errorf("invalid partitions: %d, must be at least 1", c.Partitions)
	}
	return nil
}

// Encode returns the file contents for the configuration
func (c *Config) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes the configuration to path, replacing any existing file
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadConfig loads rlgen.json from the current directory or a parent
// directory. The returned string is the directory holding the file.
func LoadConfig() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return loadConfigFromDir(dir)
}

// LoadConfigFromPath loads the configuration from a specific path
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &config, nil
}

// loadConfigFromDir searches for rlgen.json in the given directory and its parents
func loadConfigFromDir(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			config, err := LoadConfigFromPath(configPath)
			if err != nil {
				return nil, "", err
			}
			return config, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return nil, "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, startDir)
}
