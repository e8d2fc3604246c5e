// Package config loads termpanel configuration from TOML files and
// optional YAML keymap overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level termpanel configuration.
type Config struct {
	Editor   EditorConfig   `toml:"editor"`
	Terminal TerminalConfig `toml:"terminal"`
	Log      LogConfig      `toml:"log"`

	// KeymapPath points to an optional YAML keymap override file.
	KeymapPath string `toml:"keymap_path"`
}

// EditorConfig describes the child editor process.
type EditorConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Suffix  string   `toml:"suffix"`
	Env     []string `toml:"env"`
}

// TerminalConfig describes the emulated terminal environment.
type TerminalConfig struct {
	Term   string `toml:"term"`
	Locale string `toml:"locale"`
	Cols   int    `toml:"cols"`
	Rows   int    `toml:"rows"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			Command: "vim",
			Suffix:  ".txt",
		},
		Terminal: TerminalConfig{
			Term:   "linux",
			Locale: "en_GB.UTF-8",
			Cols:   80,
			Rows:   24,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the standard configuration file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "termpanel", "config.toml")
	}
	return "config.toml"
}

// Load reads the TOML configuration at path, applying defaults for any
// fields the file omits. A missing file is not an error; the defaults
// are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot be used.
func (c *Config) Validate() error {
	if c.Editor.Command == "" {
		return fmt.Errorf("editor.command must not be empty")
	}
	if c.Terminal.Cols <= 0 || c.Terminal.Rows <= 0 {
		return fmt.Errorf("terminal geometry %dx%d is invalid", c.Terminal.Cols, c.Terminal.Rows)
	}
	return nil
}

// LoadKeymap reads a YAML keymap override file mapping key names to the
// byte sequences written to the child. A missing file yields an empty
// map.
func LoadKeymap(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading keymap file %s: %w", path, err)
	}

	var keymap map[string]string
	if err := yaml.Unmarshal(data, &keymap); err != nil {
		return nil, fmt.Errorf("parsing keymap file %s: %w", path, err)
	}
	return keymap, nil
}
