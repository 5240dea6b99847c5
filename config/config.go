// Package config loads optional toolchain configuration from a
// .sparcrc.toml file: defaults overridden by a file found in the current
// directory or the user's home directory, created on demand by Save.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds settings shared by sparcasm and sparcsim.
type Config struct {
	Assembler struct {
		DefaultTarget string `toml:"default_target"`
	} `toml:"assembler"`

	Simulator struct {
		DefaultTarget string `toml:"default_target"`
		MaxCycles     uint64 `toml:"max_cycles"`
		Silent        bool   `toml:"silent"`
	} `toml:"simulator"`
}

// DefaultConfig returns a configuration with hardcoded defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Assembler.DefaultTarget = "v8"

	cfg.Simulator.DefaultTarget = "v8"
	cfg.Simulator.MaxCycles = 10_000_000
	cfg.Simulator.Silent = false

	return cfg
}

const configFileName = ".sparcrc.toml"

// FindConfigPath searches the current directory, then $HOME, for an
// existing config file. If neither has one it returns a path in the
// current directory suitable for Save.
func FindConfigPath() string {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return configFileName
}

// Load loads configuration from the first config file found by
// FindConfigPath, returning defaults if none exists.
func Load() (*Config, error) {
	return LoadFrom(FindConfigPath())
}

// LoadFrom loads configuration from the specified file, returning
// defaults unmodified if the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the path FindConfigPath would report.
func (c *Config) Save() error {
	return c.SaveTo(FindConfigPath())
}

// SaveTo writes the configuration to path, creating parent directories
// as needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.Create(path) // #nosec G304 -- user-specified config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
