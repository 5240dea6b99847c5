package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Assembler.DefaultTarget != "v8" {
		t.Errorf("Expected Assembler.DefaultTarget=v8, got %s", cfg.Assembler.DefaultTarget)
	}
	if cfg.Simulator.DefaultTarget != "v8" {
		t.Errorf("Expected Simulator.DefaultTarget=v8, got %s", cfg.Simulator.DefaultTarget)
	}
	if cfg.Simulator.MaxCycles != 10_000_000 {
		t.Errorf("Expected MaxCycles=10000000, got %d", cfg.Simulator.MaxCycles)
	}
	if cfg.Simulator.Silent {
		t.Error("Expected Simulator.Silent=false")
	}
}

func TestFindConfigPath(t *testing.T) {
	path := FindConfigPath()
	if path == "" {
		t.Error("FindConfigPath returned empty string")
	}
	if filepath.Base(path) != configFileName {
		t.Errorf("Expected path to end with %s, got %s", configFileName, path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Assembler.DefaultTarget = "block-icc-movcc"
	cfg.Simulator.MaxCycles = 500000
	cfg.Simulator.Silent = true

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Assembler.DefaultTarget != "block-icc-movcc" {
		t.Errorf("Expected DefaultTarget=block-icc-movcc, got %s", loaded.Assembler.DefaultTarget)
	}
	if loaded.Simulator.MaxCycles != 500000 {
		t.Errorf("Expected MaxCycles=500000, got %d", loaded.Simulator.MaxCycles)
	}
	if !loaded.Simulator.Silent {
		t.Error("Expected Silent=true")
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}
	if cfg.Simulator.MaxCycles != 10_000_000 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[simulator]
max_cycles = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}
